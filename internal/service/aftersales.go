package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/enum"
	"github.com/loomline/backoffice/internal/metrics"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the after-sales service.
var (
	ErrInvalidProductID = errors.New("invalid product_id")
	ErrProductNotFound  = errors.New("product not found")
	ErrOutOfStock       = errors.New("product out of stock")
	ErrInvalidPrice     = errors.New("invalid price")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to record a completed order.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	UpsertCustomer(ctx context.Context, arg database.UpsertCustomerParams) (database.Customer, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	DecrementProductStock(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateCompletedOrder(ctx context.Context, arg database.CreateCompletedOrderParams) (database.Order, error)
	GetCompletedOrder(ctx context.Context, id uuid.UUID) (database.ListCompletedOrdersRow, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// Feed is the completed-order list the service keeps current.
// Satisfied by *orders.Feed.
type Feed interface {
	Load(ctx context.Context) (orders.Snapshot, error)
	Prepend(o orders.Order) orders.Snapshot
	Snapshot() orders.Snapshot
}

// Publisher pushes a new order list to connected viewers.
// Satisfied by *ws.Hub.
type Publisher interface {
	PublishOrders(room string, list []orders.Order)
}

// CreateOrderRequest is the sanitized input for recording a completed sale.
type CreateOrderRequest struct {
	ProductID     string
	CustomerName  string
	CustomerPhone string
	Color         string // defaults to the product's color
	Price         string // defaults to the product's price
}

// AfterSalesService owns the completed-order feed and keeps viewers in sync.
type AfterSalesService struct {
	pool      TxBeginner
	newStore  NewOrderStore
	feed      Feed
	publisher Publisher
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// NewAfterSalesService creates a new AfterSalesService. m may be nil.
func NewAfterSalesService(pool TxBeginner, newStore NewOrderStore, feed Feed, publisher Publisher, m *metrics.Registry, logger *zap.Logger) *AfterSalesService {
	return &AfterSalesService{
		pool:      pool,
		newStore:  newStore,
		feed:      feed,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Snapshot returns the current list and its filter options.
func (s *AfterSalesService) Snapshot() orders.Snapshot {
	return s.feed.Snapshot()
}

// Reload refetches the authoritative list and pushes it to viewers. On
// failure viewers receive the empty list the feed was reset to. A cancelled
// reload publishes nothing.
func (s *AfterSalesService) Reload(ctx context.Context) error {
	start := time.Now()
	snap, err := s.feed.Load(ctx)
	if s.metrics != nil {
		s.metrics.FeedReloadSec.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.metrics.FeedReloads.WithLabelValues(result).Inc()
	}
	if err != nil && ctx.Err() != nil {
		return err
	}
	s.publisher.PublishOrders(enum.RoomAfterSales, snap.Orders)
	if err != nil {
		return err
	}
	s.logger.Debug("feed reloaded", zap.Int("orders", len(snap.Orders)), zap.Uint64("generation", snap.Generation))
	return nil
}

// CreateOrder records a completed sale atomically, then shows it at the head
// of the list until the next authoritative reload.
func (s *AfterSalesService) CreateOrder(ctx context.Context, req CreateOrderRequest) (orders.Order, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return orders.Order{}, ErrInvalidProductID
	}

	var price decimal.Decimal
	hasPrice := req.Price != ""
	if hasPrice {
		price, err = decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			return orders.Order{}, ErrInvalidPrice
		}
	}

	row, err := s.createOrderTx(ctx, req, productID, price, hasPrice)
	if err != nil {
		return orders.Order{}, err
	}

	o, warning := orders.TransformOrder(row)
	if warning != "" {
		s.logger.Warn("customer relation unresolved", zap.String("order_id", o.ID.String()), zap.String("detail", warning))
	}
	snap := s.feed.Prepend(o)
	s.publisher.PublishOrders(enum.RoomAfterSales, snap.Orders)
	return o, nil
}

// createOrderTx executes the order creation in a single transaction.
func (s *AfterSalesService) createOrderTx(ctx context.Context, req CreateOrderRequest, productID uuid.UUID, price decimal.Decimal, hasPrice bool) (database.ListCompletedOrdersRow, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.ListCompletedOrdersRow{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Product + stock ---
	product, err := store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ListCompletedOrdersRow{}, ErrProductNotFound
		}
		return database.ListCompletedOrdersRow{}, fmt.Errorf("get product: %w", err)
	}
	if _, err := store.DecrementProductStock(ctx, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.ListCompletedOrdersRow{}, ErrOutOfStock
		}
		return database.ListCompletedOrdersRow{}, fmt.Errorf("decrement stock: %w", err)
	}

	// --- Customer ---
	params := database.CreateCompletedOrderParams{
		ProductID:   pgtype.UUID{Bytes: productID, Valid: true},
		ProductName: pgtype.Text{String: product.Name, Valid: true},
		Color:       product.Color,
		Price:       product.Price,
	}
	if req.Color != "" {
		params.Color = req.Color
	}
	if hasPrice {
		params.Price = decimalToNumeric(price)
	}
	if req.CustomerName != "" {
		params.CustomerName = pgtype.Text{String: req.CustomerName, Valid: true}
	}
	if req.CustomerPhone != "" {
		params.CustomerPhone = pgtype.Text{String: req.CustomerPhone, Valid: true}
		customer, err := store.UpsertCustomer(ctx, database.UpsertCustomerParams{Name: req.CustomerName, Phone: req.CustomerPhone})
		if err != nil {
			return database.ListCompletedOrdersRow{}, fmt.Errorf("upsert customer: %w", err)
		}
		params.CustomerID = pgtype.UUID{Bytes: customer.ID, Valid: true}
	}

	// --- Order ---
	order, err := store.CreateCompletedOrder(ctx, params)
	if err != nil {
		return database.ListCompletedOrdersRow{}, fmt.Errorf("create order: %w", err)
	}
	row, err := store.GetCompletedOrder(ctx, order.ID)
	if err != nil {
		return database.ListCompletedOrdersRow{}, fmt.Errorf("get order: %w", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return database.ListCompletedOrdersRow{}, fmt.Errorf("commit tx: %w", err)
	}
	return row, nil
}

// --- Helpers ---

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
