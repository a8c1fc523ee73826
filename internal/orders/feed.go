package orders

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/loomline/backoffice/internal/database"
	"go.uber.org/zap"
)

// ErrLoadFailed wraps any failure to fetch completed orders. The feed has
// already been reset to an empty list when it is returned.
var ErrLoadFailed = errors.New("load completed orders")

// undefinedColumn is the PostgreSQL SQLSTATE for a missing column.
const undefinedColumn = "42703"

// Store defines the DB methods needed by the feed.
// Satisfied by *database.Queries; narrow interface for testability.
type Store interface {
	ListCompletedOrders(ctx context.Context) ([]database.ListCompletedOrdersRow, error)
	ListCompletedOrdersByCreated(ctx context.Context) ([]database.ListCompletedOrdersRow, error)
}

// Snapshot is an immutable copy of the feed's state.
type Snapshot struct {
	Orders     []Order   `json:"orders"`
	Items      []string  `json:"items"`
	Colors     []string  `json:"colors"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Feed owns the completed-order list. It is the list's only writer.
type Feed struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	issued   uint64
	applied  uint64
	orders   []Order
	items    []string
	colors   []string
	loadedAt time.Time
}

func NewFeed(store Store, logger *zap.Logger) *Feed {
	return &Feed{store: store, logger: logger, now: time.Now}
}

// Load replaces the list with the authoritative set of completed orders.
// A response that arrives after a newer load has been applied is dropped and
// the newer snapshot is returned instead.
func (f *Feed) Load(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	f.issued++
	gen := f.issued
	f.mu.Unlock()

	rows, err := f.store.ListCompletedOrders(ctx)
	if err != nil && isMissingCompletedAt(err) {
		f.logger.Warn("completed_at unavailable, ordering by created_at", zap.Error(err))
		rows, err = f.store.ListCompletedOrdersByCreated(ctx)
	}
	if err != nil {
		// A caller that went away is not a failed load; keep what is shown.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return f.Snapshot(), fmt.Errorf("load completed orders: %w", ctxErr)
		}
		snap, _ := f.apply(gen, nil)
		return snap, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	list := make([]Order, 0, len(rows))
	for _, row := range rows {
		o, warning := TransformOrder(row)
		if warning != "" {
			f.logger.Warn("customer relation unresolved", zap.String("order_id", row.ID.String()), zap.String("detail", warning))
		}
		list = append(list, o)
	}

	snap, ok := f.apply(gen, list)
	if !ok {
		f.logger.Debug("discarded stale load", zap.Uint64("generation", gen), zap.Uint64("applied", snap.Generation))
	}
	return snap, nil
}

// Prepend inserts a locally created order at the head of the list.
func (f *Feed) Prepend(o Order) Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLocked(append([]Order{o}, f.orders...))
	return f.snapshotLocked()
}

func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

func (f *Feed) apply(gen uint64, list []Order) (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen < f.applied {
		return f.snapshotLocked(), false
	}
	f.applied = gen
	f.loadedAt = f.now()
	f.setLocked(list)
	return f.snapshotLocked(), true
}

func (f *Feed) setLocked(list []Order) {
	if list == nil {
		list = []Order{}
	}
	f.orders = list
	f.items = uniqueSorted(list, func(o Order) string { return o.Item })
	f.colors = uniqueSorted(list, func(o Order) string { return o.Color })
}

func (f *Feed) snapshotLocked() Snapshot {
	return Snapshot{
		Orders:     slices.Clone(f.orders),
		Items:      slices.Clone(f.items),
		Colors:     slices.Clone(f.colors),
		Generation: f.applied,
		LoadedAt:   f.loadedAt,
	}
}

func uniqueSorted(list []Order, key func(Order) string) []string {
	seen := make(map[string]struct{}, len(list))
	out := []string{}
	for _, o := range list {
		k := key(o)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// isMissingCompletedAt reports whether err says the completed_at column is not
// part of the schema.
func isMissingCompletedAt(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedColumn && strings.Contains(pgErr.Message, "completed_at")
	}
	return strings.Contains(err.Error(), "completed_at")
}
