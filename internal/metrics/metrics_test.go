package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.FeedReloads.WithLabelValues("ok").Inc()
	r.FeedReloads.WithLabelValues("ok").Inc()
	r.RealtimeEvents.WithLabelValues("update").Inc()

	if got := testutil.ToFloat64(r.FeedReloads.WithLabelValues("ok")); got != 2 {
		t.Errorf("reloads ok: got %v, want 2", got)
	}

	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `backoffice_realtime_events_total{type="update"} 1`) {
		t.Errorf("metrics output missing realtime counter:\n%s", body)
	}
}
