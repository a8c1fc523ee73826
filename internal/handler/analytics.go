package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/loomline/backoffice/internal/analytics"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard chart data.
type AnalyticsHandler struct {
	fixtures *analytics.Fixtures
	logger   *zap.Logger
}

func NewAnalyticsHandler(fixtures *analytics.Fixtures, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{fixtures: fixtures, logger: logger}
}

// RegisterRoutes registers analytics endpoints: /analytics
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
}

// Dashboard returns KPI cards, the revenue series, category shares and the
// top products (?top=N, default 5).
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	top := 5
	if s := r.URL.Query().Get("top"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "top must be a non-negative integer"})
			return
		}
		top = v
	}

	d, err := h.fixtures.Build(top)
	if err != nil {
		h.logger.Error("build dashboard", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}
