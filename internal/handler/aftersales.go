package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/loomline/backoffice/internal/filter"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/loomline/backoffice/internal/render"
	"github.com/loomline/backoffice/internal/sanitize"
	"github.com/loomline/backoffice/internal/service"
	"go.uber.org/zap"
)

// AfterSalesService is the feed owner used by AfterSalesHandler.
// Satisfied by *service.AfterSalesService.
type AfterSalesService interface {
	Snapshot() orders.Snapshot
	Reload(ctx context.Context) error
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (orders.Order, error)
}

// PageRenderer writes the after-sales page. Satisfied by *render.TableRenderer.
type PageRenderer interface {
	Page(w io.Writer, data render.PageData) error
}

// AfterSalesHandler serves the completed-orders table.
type AfterSalesHandler struct {
	svc      AfterSalesService
	renderer PageRenderer
	logger   *zap.Logger
}

// NewAfterSalesHandler creates a new AfterSalesHandler.
func NewAfterSalesHandler(svc AfterSalesService, renderer PageRenderer, logger *zap.Logger) *AfterSalesHandler {
	return &AfterSalesHandler{svc: svc, renderer: renderer, logger: logger}
}

// RegisterRoutes registers after-sales endpoints.
// Expected to be mounted at /after-sales behind Authenticate.
func (h *AfterSalesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Page)
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
}

// RegisterAdminRoutes registers endpoints restricted to administrators.
func (h *AfterSalesHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/reload", h.Reload)
}

// --- Request / Response types ---

type createOrderRequest struct {
	ProductID     string `json:"product_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Color         string `json:"color"`
	Price         string `json:"price"`
}

type orderListResponse struct {
	Orders     []orders.Order `json:"orders"`
	Count      int            `json:"count"`
	Items      []string       `json:"items"`
	Colors     []string       `json:"colors"`
	State      filter.State   `json:"state"`
	Generation uint64         `json:"generation"`
	LoadedAt   *time.Time     `json:"loaded_at"`
}

// --- Handlers ---

// Page renders the full HTML table with the filters from the query string.
func (h *AfterSalesHandler) Page(w http.ResponseWriter, r *http.Request) {
	state, err := stateFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := h.svc.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Page(w, render.PageData{
		State:  state,
		Items:  snap.Items,
		Colors: snap.Colors,
		Rows:   filter.Apply(snap.Orders, state),
	}); err != nil {
		h.logger.Error("render after-sales page", zap.Error(err))
	}
}

// List returns the derived view as JSON.
func (h *AfterSalesHandler) List(w http.ResponseWriter, r *http.Request) {
	state, err := stateFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap := h.svc.Snapshot()
	view := filter.Apply(snap.Orders, state)
	resp := orderListResponse{
		Orders:     view,
		Count:      len(view),
		Items:      snap.Items,
		Colors:     snap.Colors,
		State:      state,
		Generation: snap.Generation,
	}
	if !snap.LoadedAt.IsZero() {
		resp.LoadedAt = &snap.LoadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create records a completed sale and returns the normalized order.
func (h *AfterSalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return
	}
	phone, err := sanitize.Phone(req.CustomerPhone)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	o, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		ProductID:     sanitize.Text(req.ProductID),
		CustomerName:  sanitize.Name(req.CustomerName),
		CustomerPhone: phone,
		Color:         sanitize.Text(req.Color),
		Price:         sanitize.Text(req.Price),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidProductID), errors.Is(err, service.ErrInvalidPrice):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrProductNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOutOfStock):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			h.logger.Error("create completed order", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// Reload forces an authoritative refetch of the list.
func (h *AfterSalesHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(r.Context()); err != nil {
		h.logger.Error("manual reload", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "reload failed, list cleared"})
		return
	}
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"count": len(snap.Orders), "generation": snap.Generation})
}

// --- Helpers ---

func stateFromQuery(r *http.Request) (filter.State, error) {
	q := r.URL.Query()
	date, err := sanitize.Date(q.Get("date"))
	if err != nil {
		return filter.State{}, err
	}
	state := filter.State{Sort: filter.SortNewest}
	for _, kv := range []struct {
		field filter.Field
		value string
	}{
		{filter.FieldDate, date},
		{filter.FieldItem, sanitize.Text(q.Get("item"))},
		{filter.FieldColor, sanitize.Text(q.Get("color"))},
		{filter.FieldSort, q.Get("sort")},
	} {
		if state, err = state.With(kv.field, kv.value); err != nil {
			return filter.State{}, err
		}
	}
	return state, nil
}
