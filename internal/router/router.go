package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/loomline/backoffice/internal/analytics"
	"github.com/loomline/backoffice/internal/config"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/enum"
	"github.com/loomline/backoffice/internal/handler"
	"github.com/loomline/backoffice/internal/logging"
	"github.com/loomline/backoffice/internal/metrics"
	mw "github.com/loomline/backoffice/internal/middleware"
	"github.com/loomline/backoffice/internal/render"
	"github.com/loomline/backoffice/internal/ws"
	"go.uber.org/zap"
)

// Deps are the long-lived components shared between the router and the
// background workers started by main.
type Deps struct {
	Queries    *database.Queries
	AfterSales handler.AfterSalesService
	OTP        handler.OTPService
	Renderer   *render.TableRenderer
	Hub        *ws.Hub
	Analytics  *analytics.Fixtures
	Metrics    *metrics.Registry
	Logger     *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method("GET", "/metrics", deps.Metrics.Handler())

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(deps.OTP, cfg.SecureCookies, deps.Logger)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param or cookie)
	r.Get("/ws/after-sales", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, enum.RoomAfterSales, cfg.JWTSecret, cfg.AllowedOrigins, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		afterSalesHandler := handler.NewAfterSalesHandler(deps.AfterSales, deps.Renderer, deps.Logger)
		r.Route("/after-sales", func(r chi.Router) {
			afterSalesHandler.RegisterRoutes(r)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				afterSalesHandler.RegisterAdminRoutes(r)
			})
		})

		inventoryHandler := handler.NewInventoryHandler(deps.Queries, deps.Logger)
		r.Route("/inventory", inventoryHandler.RegisterRoutes)

		analyticsHandler := handler.NewAnalyticsHandler(deps.Analytics, deps.Logger)
		r.Route("/analytics", analyticsHandler.RegisterRoutes)
	})

	deps.Logger.Debug("router initialized")
	return r
}
