package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loomline/backoffice/internal/analytics"
	"github.com/loomline/backoffice/internal/config"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/enum"
	"github.com/loomline/backoffice/internal/logging"
	"github.com/loomline/backoffice/internal/metrics"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/loomline/backoffice/internal/realtime"
	"github.com/loomline/backoffice/internal/render"
	"github.com/loomline/backoffice/internal/router"
	"github.com/loomline/backoffice/internal/service"
	"github.com/loomline/backoffice/internal/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	fixtures, err := analytics.LoadFixtures()
	if err != nil {
		return fmt.Errorf("load analytics fixtures: %w", err)
	}

	reg := metrics.NewRegistry()
	queries := database.New(pool)
	renderer := render.NewTableRenderer(language.Make(cfg.Locale))
	hub := ws.NewHub(renderer, logger.Named("ws"), reg.WSClients)
	feed := orders.NewFeed(queries, logger.Named("feed"))

	afterSales := service.NewAfterSalesService(
		pool,
		func(db database.DBTX) service.OrderStore { return database.New(db) },
		feed,
		hub,
		reg,
		logger.Named("after-sales"),
	)
	otp := service.NewOTPService(queries, service.LogSender{Logger: logger.Named("otp")}, cfg.JWTSecret, cfg.OTPTTL, reg, logger.Named("otp"))

	r := router.New(cfg, router.Deps{
		Queries:    queries,
		AfterSales: afterSales,
		OTP:        otp,
		Renderer:   renderer,
		Hub:        hub,
		Analytics:  fixtures,
		Metrics:    reg,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	// The hub must be running before the first publish.
	if err := afterSales.Reload(ctx); err != nil {
		logger.Warn("initial load failed, starting with an empty list", zap.Error(err))
	}

	source, err := newSource(cfg, pool)
	if err != nil {
		return err
	}
	if source != nil {
		bridge := realtime.NewBridge(source, afterSales, cfg.RealtimeDebounce, logger.Named("realtime"), reg)
		if err := bridge.Start(gctx); err != nil {
			logger.Warn("realtime disabled", zap.Error(err))
		}
		g.Go(func() error {
			<-gctx.Done()
			bridge.Stop()
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("realtime", cfg.RealtimeSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newSource(cfg *config.Config, pool *pgxpool.Pool) (realtime.Source, error) {
	switch cfg.RealtimeSource {
	case config.RealtimePostgres:
		return realtime.NewPGNotifySource(pool, enum.ChannelOrdersCompleted), nil
	case config.RealtimeKafka:
		return realtime.NewKafkaSource(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.RealtimeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownRealtimeSource, cfg.RealtimeSource)
	}
}
