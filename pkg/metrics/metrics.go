package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Custom histogram buckets optimized for API response times ranging from
	// milliseconds to multi-second database operations
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Database Client Metrics
	DBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	// Storage Client Metrics (recordings)
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Business Metrics
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_sessions_created_total",
			Help: "Total number of mentoring sessions booked",
		},
		[]string{"status"},
	)

	SessionsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorbook_sessions_cancelled_total",
			Help: "Total number of mentoring sessions cancelled",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_session_transitions_total",
			Help: "Session state machine transitions",
		},
		[]string{"from_status", "to_status"},
	)

	ScheduleRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_schedule_rejections_total",
			Help: "Booking requests rejected by the schedule calculator, by reason",
		},
		[]string{"reason"},
	)

	SlotConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorbook_slot_conflicts_total",
			Help: "Booking requests rejected because the slot overlaps a committed session",
		},
	)

	BlackoutsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentorbook_blackouts_created_total",
			Help: "Total number of mentor blackouts created",
		},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorbook_notifications_dispatched_total",
			Help: "Best-effort notification dispatches",
		},
		[]string{"event", "status"},
	)

	// Infrastructure Metrics
	GoroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "go_app_goroutines",
			Help: "Number of goroutines",
		},
	)
)

// Registry is the prometheus gatherer exposed on /api/metrics
var Registry prometheus.Gatherer = prometheus.DefaultGatherer

var serviceName string

// Init records the service name used by dashboards
func Init(name string) {
	serviceName = name
}

// ServiceName returns the configured service name
func ServiceName() string {
	return serviceName
}

// MeasureDuration returns the elapsed time since start in seconds
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// RecordInfrastructureMetrics starts a background goroutine that samples
// runtime statistics every 15 seconds
func RecordInfrastructureMetrics() {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}()
}
