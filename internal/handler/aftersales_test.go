package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/loomline/backoffice/internal/handler"
	"github.com/loomline/backoffice/internal/orders"
	"github.com/loomline/backoffice/internal/render"
	"github.com/loomline/backoffice/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// --- Mock service ---

type mockAfterSalesService struct {
	snap     orders.Snapshot
	reloadFn func(ctx context.Context) error
	createFn func(ctx context.Context, req service.CreateOrderRequest) (orders.Order, error)
}

func (m *mockAfterSalesService) Snapshot() orders.Snapshot { return m.snap }

func (m *mockAfterSalesService) Reload(ctx context.Context) error { return m.reloadFn(ctx) }

func (m *mockAfterSalesService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (orders.Order, error) {
	return m.createFn(ctx, req)
}

// --- Helpers ---

func sampleSnapshot() orders.Snapshot {
	return orders.Snapshot{
		Orders: []orders.Order{
			{ID: uuid.New(), CustomerName: "Dewi", CustomerPhone: "0812", Item: "Linen Shirt", Color: "White", Price: decimal.NewFromInt(350000), Date: "2024-06-12"},
			{ID: uuid.New(), CustomerName: "Budi", CustomerPhone: "0813", Item: "Slim Jeans", Color: "Indigo", Price: decimal.NewFromInt(499000), Date: "2024-06-10"},
			{ID: uuid.New(), CustomerName: "Sari", CustomerPhone: "0814", Item: "Linen Shirt", Color: "Sage", Price: decimal.NewFromInt(365000), Date: "2024-06-08"},
		},
		Items:      []string{"Linen Shirt", "Slim Jeans"},
		Colors:     []string{"Indigo", "Sage", "White"},
		Generation: 3,
		LoadedAt:   time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
	}
}

func newAfterSalesRouter(svc handler.AfterSalesService) *chi.Mux {
	h := handler.NewAfterSalesHandler(svc, render.NewTableRenderer(language.English), zap.NewNop())
	r := chi.NewRouter()
	r.Route("/after-sales", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterAdminRoutes(r)
	})
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	return rr
}

// --- Page tests ---

func TestAfterSalesPage_RendersFilteredRows(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{snap: sampleSnapshot()})

	rr := get(t, r, "/after-sales/?item=Linen+Shirt&sort=price-high")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}

	body := rr.Body.String()
	if strings.Contains(body, "Budi") {
		t.Error("filtered-out row rendered")
	}
	sari, dewi := strings.Index(body, "Sari"), strings.Index(body, "Dewi")
	if sari < 0 || dewi < 0 || sari > dewi {
		t.Errorf("rows not sorted by price descending: Sari at %d, Dewi at %d", sari, dewi)
	}
	if !strings.Contains(body, `<option value="price-high" selected>`) {
		t.Error("sort control does not reflect query")
	}
}

func TestAfterSalesPage_InvalidSort(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{snap: sampleSnapshot()})
	if rr := get(t, r, "/after-sales/?sort=random"); rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAfterSalesPage_EmptyList(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{})
	rr := get(t, r, "/after-sales/")
	if !strings.Contains(rr.Body.String(), "No completed orders") {
		t.Error("empty placeholder row missing")
	}
}

// --- List tests ---

func TestAfterSalesList(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{snap: sampleSnapshot()})

	rr := get(t, r, "/after-sales/orders?color=Sage")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Orders     []orders.Order `json:"orders"`
		Count      int            `json:"count"`
		Colors     []string       `json:"colors"`
		Generation uint64         `json:"generation"`
		LoadedAt   *time.Time     `json:"loaded_at"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Orders[0].CustomerName != "Sari" {
		t.Errorf("orders: got %+v", resp.Orders)
	}
	if diff := cmp.Diff([]string{"Indigo", "Sage", "White"}, resp.Colors); diff != "" {
		t.Errorf("colors (-want +got):\n%s", diff)
	}
	if resp.Generation != 3 || resp.LoadedAt == nil {
		t.Errorf("metadata: generation %d, loaded_at %v", resp.Generation, resp.LoadedAt)
	}
}

func TestAfterSalesList_InvalidDate(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{snap: sampleSnapshot()})
	if rr := get(t, r, "/after-sales/orders?date=12-06-2024"); rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Create tests ---

func TestAfterSalesCreate_SanitizesInput(t *testing.T) {
	productID := uuid.New()
	var got service.CreateOrderRequest
	r := newAfterSalesRouter(&mockAfterSalesService{
		createFn: func(_ context.Context, req service.CreateOrderRequest) (orders.Order, error) {
			got = req
			return orders.Order{ID: uuid.New(), CustomerName: req.CustomerName, Item: "Linen Shirt", Price: decimal.NewFromInt(350000)}, nil
		},
	})

	rr := postJSON(t, r, "/after-sales/orders", map[string]string{
		"product_id":     productID.String(),
		"customer_name":  "<b>Dewi</b>  Lestari",
		"customer_phone": "+62 812-3456-7890",
		"color":          "White",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	want := service.CreateOrderRequest{
		ProductID:     productID.String(),
		CustomerName:  "Dewi Lestari",
		CustomerPhone: "+6281234567890",
		Color:         "White",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request (-want +got):\n%s", diff)
	}
}

func TestAfterSalesCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad product id", service.ErrInvalidProductID, http.StatusBadRequest},
		{"bad price", service.ErrInvalidPrice, http.StatusBadRequest},
		{"unknown product", service.ErrProductNotFound, http.StatusNotFound},
		{"sold out", service.ErrOutOfStock, http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newAfterSalesRouter(&mockAfterSalesService{
				createFn: func(context.Context, service.CreateOrderRequest) (orders.Order, error) {
					return orders.Order{}, fmt.Errorf("create: %w", tc.err)
				},
			})
			rr := postJSON(t, r, "/after-sales/orders", map[string]string{"product_id": uuid.NewString()})
			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestAfterSalesCreate_Validation(t *testing.T) {
	r := newAfterSalesRouter(&mockAfterSalesService{})

	if rr := postJSON(t, r, "/after-sales/orders", map[string]string{}); rr.Code != http.StatusBadRequest {
		t.Errorf("missing product: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	rr := postJSON(t, r, "/after-sales/orders", map[string]string{"product_id": uuid.NewString(), "customer_phone": "12"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("short phone: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	req := httptest.NewRequest("POST", "/after-sales/orders", bytes.NewBufferString("not json"))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Reload tests ---

func TestAfterSalesReload(t *testing.T) {
	svc := &mockAfterSalesService{snap: sampleSnapshot(), reloadFn: func(context.Context) error { return nil }}
	r := newAfterSalesRouter(svc)

	rr := postJSON(t, r, "/after-sales/reload", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["count"] != float64(3) || resp["generation"] != float64(3) {
		t.Errorf("response: got %v", resp)
	}
}

func TestAfterSalesReload_Failure(t *testing.T) {
	svc := &mockAfterSalesService{reloadFn: func(context.Context) error { return orders.ErrLoadFailed }}
	r := newAfterSalesRouter(svc)

	if rr := postJSON(t, r, "/after-sales/reload", nil); rr.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}
