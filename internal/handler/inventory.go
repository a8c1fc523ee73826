package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/loomline/backoffice/internal/database"
	"github.com/loomline/backoffice/internal/sanitize"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LowStockThreshold is the stock quantity at or below which a product is
// flagged for restocking.
const LowStockThreshold = 5

// InventoryStore defines the database methods needed by inventory handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryStore interface {
	ListInventory(ctx context.Context, arg database.ListInventoryParams) ([]database.Product, error)
}

// InventoryHandler serves stock levels.
type InventoryHandler struct {
	store  InventoryStore
	logger *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(store InventoryStore, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{store: store, logger: logger}
}

// RegisterRoutes registers inventory endpoints: /inventory
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type inventoryResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Color         string    `json:"color"`
	Size          string    `json:"size"`
	Price         string    `json:"price"`
	StockQuantity int32     `json:"stock_quantity"`
	LowStock      bool      `json:"low_stock"`
}

func toInventoryResponse(p database.Product) inventoryResponse {
	resp := inventoryResponse{
		ID:            p.ID,
		Name:          p.Name,
		Color:         p.Color,
		Size:          p.Size,
		Price:         "0.00",
		StockQuantity: p.StockQuantity,
		LowStock:      p.StockQuantity <= LowStockThreshold,
	}

	// Always format with 2 decimal places for consistent money representation.
	if p.Price.Valid {
		val, err := p.Price.Value()
		if err == nil && val != nil {
			if d, err := decimal.NewFromString(val.(string)); err == nil {
				resp.Price = d.StringFixed(2)
			}
		}
	}
	return resp
}

// List returns products with stock levels, with optional search and
// low-stock filtering.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Parse pagination
	limit := 50
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	if offset > math.MaxInt32 {
		offset = math.MaxInt32
	}

	var search pgtype.Text
	if s := sanitize.Text(q.Get("search")); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	lowStock := false
	if s := q.Get("low_stock"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "low_stock must be true or false"})
			return
		}
		lowStock = v
	}

	products, err := h.store.ListInventory(r.Context(), database.ListInventoryParams{
		Search:       search,
		LowStockOnly: lowStock,
		Threshold:    LowStockThreshold,
		Limit:        int32(limit),
		Offset:       int32(offset),
	})
	if err != nil {
		h.logger.Error("list inventory", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]inventoryResponse, len(products))
	for i, p := range products {
		resp[i] = toInventoryResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
