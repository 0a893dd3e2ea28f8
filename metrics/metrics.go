// Package metrics holds the gateway's Prometheus collectors
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics is the collector set shared by the gateway components
type Metrics struct {
	// Calls to the cart service, by operation and outcome
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Cart math
	InvalidItemsFiltered prometheus.Counter
	MemoLookups          *prometheus.CounterVec

	// Guest sessions
	GuestSessionFallbacks prometheus.Counter
	GuestCleanups         *prometheus.CounterVec

	ActivityEvents *prometheus.CounterVec
	LiveViews      prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
}

// New creates the collectors. Call Register before serving them.
func New() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart_api",
			Name:      "requests_total",
			Help:      "Requests sent to the cart service",
		}, []string{"operation", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cart_api",
			Name:      "request_duration_seconds",
			Help:      "Cart service request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		InvalidItemsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_items_filtered_total",
			Help:      "Cart line items dropped because their product reference did not resolve",
		}),
		MemoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_memo_lookups_total",
			Help:      "Cart view memo lookups by result",
		}, []string{"result"}),
		GuestSessionFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_session_fallbacks_total",
			Help:      "Guest sessions generated locally because issuance failed",
		}),
		GuestCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_cart_cleanups_total",
			Help:      "Best-effort guest cart cleanups by outcome",
		}, []string{"outcome"}),
		ActivityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_total",
			Help:      "Cart activity events handed to the publisher",
		}, []string{"type", "outcome"}),
		LiveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_cart_views",
			Help:      "Currently mounted live cart views",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Gateway HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
}

// Register registers every collector with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.InvalidItemsFiltered,
		m.MemoLookups,
		m.GuestSessionFallbacks,
		m.GuestCleanups,
		m.ActivityEvents,
		m.LiveViews,
		m.HTTPRequests,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the collectors registered in gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
