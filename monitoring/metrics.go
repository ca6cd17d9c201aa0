package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_booking_operations_total",
			Help: "Booking submissions by outcome",
		},
		[]string{"status"},
	)

	authOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_auth_operations_total",
			Help: "Sign-in, sign-up and sign-out attempts by outcome",
		},
		[]string{"operation", "status"},
	)

	catalogQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_catalog_queries_total",
			Help: "Event catalog queries by outcome",
		},
		[]string{"status"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_notifications_total",
			Help: "Realtime notifications by outcome",
		},
		[]string{"status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhub_active_sessions",
			Help: "Signed-in sessions held in memory",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhub_active_goroutines",
			Help: "Current number of goroutines",
		},
	)

	renderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_page_render_duration_seconds",
			Help:    "Time spent building and rendering a page",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"page"},
	)
)

// SessionCounter reports how many sessions are signed in.
type SessionCounter interface {
	Count() int
}

type Monitor struct {
	sessions SessionCounter
	interval time.Duration
}

func NewMonitor(sessions SessionCounter) *Monitor {
	return &Monitor{
		sessions: sessions,
		interval: 30 * time.Second,
	}
}

// Run samples the gauges until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.collect()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.collect()
		}
	}
}

func (m *Monitor) collect() {
	if m.sessions != nil {
		activeSessions.Set(float64(m.sessions.Count()))
	}
	goroutineCount.Set(float64(runtime.NumGoroutine()))
}

func (m *Monitor) TrackBooking(status string) {
	bookingOperations.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackAuth(operation, status string) {
	authOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackCatalogQuery(status string) {
	catalogQueries.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackNotification(status string) {
	notifications.WithLabelValues(status).Inc()
}

// Track page render duration
func (m *Monitor) TrackRender(page string, duration time.Duration) {
	renderDuration.WithLabelValues(page).Observe(duration.Seconds())
}
