package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loomline/backoffice/internal/metrics"
	"go.uber.org/zap"
)

// Reloader refetches the authoritative order list. Satisfied by the
// after-sales service.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Bridge holds at most one live subscription and turns every event it
// receives into a full reload. Events inside the debounce window collapse
// into one reload; reloads run one at a time on the bridge's worker.
type Bridge struct {
	source   Source
	reloader Reloader
	debounce time.Duration
	logger   *zap.Logger
	metrics  *metrics.Registry

	mu     sync.Mutex
	sub    Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBridge creates a stopped bridge. A zero debounce reloads once per event.
// m may be nil.
func NewBridge(source Source, reloader Reloader, debounce time.Duration, logger *zap.Logger, m *metrics.Registry) *Bridge {
	return &Bridge{
		source:   source,
		reloader: reloader,
		debounce: debounce,
		logger:   logger,
		metrics:  m,
	}
}

// Start opens a new subscription, closing any previous one first. A failed
// subscribe is logged and returned; the bridge is then stopped and is not
// retried.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	sub, err := b.source.Subscribe(runCtx)
	if err != nil {
		cancel()
		b.logger.Error("realtime subscribe failed", zap.Error(err))
		return fmt.Errorf("subscribe: %w", err)
	}
	done := make(chan struct{})
	b.sub, b.cancel, b.done = sub, cancel, done
	go b.run(runCtx, sub, done)
	b.logger.Info("realtime bridge started", zap.Duration("debounce", b.debounce))
	return nil
}

// Stop closes the subscription and waits for any in-flight reload. Calling it
// on a stopped bridge is a no-op.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

// Running reports whether a subscription is live.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil {
		return false
	}
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

func (b *Bridge) stopLocked() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	_ = b.sub.Close()
	<-b.done
	b.sub, b.cancel, b.done = nil, nil, nil
}

func (b *Bridge) run(ctx context.Context, sub Subscription, done chan struct{}) {
	defer close(done)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if err := sub.Err(); err != nil {
					b.logger.Error("realtime subscription ended", zap.Error(err))
				}
				if pending {
					b.reload(ctx)
				}
				return
			}
			if b.metrics != nil {
				b.metrics.RealtimeEvents.WithLabelValues(string(ev.Type)).Inc()
			}
			b.logger.Debug("order change", zap.String("type", string(ev.Type)))
			if b.debounce <= 0 {
				b.reload(ctx)
				continue
			}
			if !pending {
				pending = true
				timer = time.NewTimer(b.debounce)
				timerC = timer.C
			}
		case <-timerC:
			pending, timerC = false, nil
			b.reload(ctx)
		}
	}
}

func (b *Bridge) reload(ctx context.Context) {
	if err := b.reloader.Reload(ctx); err != nil && ctx.Err() == nil {
		b.logger.Warn("realtime reload failed", zap.Error(err))
	}
}
