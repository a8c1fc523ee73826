package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg            *prometheus.Registry
	FeedReloads    *prometheus.CounterVec
	FeedReloadSec  prometheus.Histogram
	RealtimeEvents *prometheus.CounterVec
	WSClients      prometheus.Gauge
	OTPRequests    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "backoffice_feed_reloads_total"}, []string{"result"})
	reloadSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "backoffice_feed_reload_seconds",
		Buckets: prometheus.DefBuckets,
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "backoffice_realtime_events_total"}, []string{"type"})
	clients := prometheus.NewGauge(prometheus.GaugeOpts{Name: "backoffice_ws_clients"})
	otp := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "backoffice_otp_requests_total"}, []string{"result"})

	r.MustRegister(reloads, reloadSec, events, clients, otp)
	return &Registry{
		reg:            r,
		FeedReloads:    reloads,
		FeedReloadSec:  reloadSec,
		RealtimeEvents: events,
		WSClients:      clients,
		OTPRequests:    otp,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
