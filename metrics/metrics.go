// Package metrics holds the Prometheus collectors of the service. All methods
// are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	PriceChecksTotal       *prometheus.CounterVec // by result: updated, alert, error
	PriceCheckPassDuration prometheus.Histogram
	NotificationsTotal     *prometheus.CounterVec // by notifier, kind, status
	GeofenceEventsTotal    *prometheus.CounterVec // by event: enter, exit, suppressed
	CollectionAlbums       prometheus.Gauge
	WishlistItems          prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vinylvault_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	m.PriceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_price_checks_total",
			Help: "Wishlist price checks by result",
		},
		[]string{"result"},
	)
	m.PriceCheckPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vinylvault_price_check_pass_duration_seconds",
			Help:    "Duration of a full price check pass",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
	m.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_notifications_total",
			Help: "Notification deliveries by notifier, kind and status",
		},
		[]string{"notifier", "kind", "status"},
	)
	m.GeofenceEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_geofence_events_total",
			Help: "Store region events by type",
		},
		[]string{"event"},
	)
	m.CollectionAlbums = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vinylvault_collection_albums",
		Help: "Number of albums in the collection",
	})
	m.WishlistItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vinylvault_wishlist_items",
		Help: "Number of items on the wishlist",
	})

	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.PriceChecksTotal, m.PriceCheckPassDuration,
		m.NotificationsTotal, m.GeofenceEventsTotal,
		m.CollectionAlbums, m.WishlistItems,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, fmt.Sprint(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) PriceCheck(result string) {
	if m == nil {
		return
	}
	m.PriceChecksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) PriceCheckPass(d time.Duration) {
	if m == nil {
		return
	}
	m.PriceCheckPassDuration.Observe(d.Seconds())
}

func (m *Metrics) Notification(notifier, kind string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.NotificationsTotal.WithLabelValues(notifier, kind, status).Inc()
}

func (m *Metrics) GeofenceEvent(event string) {
	if m == nil {
		return
	}
	m.GeofenceEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) SetCollectionSize(albums, wishlist int) {
	if m == nil {
		return
	}
	m.CollectionAlbums.Set(float64(albums))
	m.WishlistItems.Set(float64(wishlist))
}
