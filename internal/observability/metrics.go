// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instaclone_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instaclone_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ImageStoreOperations counts image store calls by operation and outcome.
	ImageStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instaclone_image_store_operations_total",
		Help: "Total image store operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// ImageStoreLatency records how long image store calls take.
	ImageStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instaclone_image_store_latency_seconds",
		Help:    "Image store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// DomainEvents counts successful social actions (follow, like, publish...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instaclone_domain_events_total",
		Help: "Total domain events by type",
	}, []string{"event"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instaclone_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instaclone_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instaclone_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// RecordDomainEvent increments the counter for a named domain event.
func RecordDomainEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// ObserveImageStore records the outcome and latency of an image store call.
func ObserveImageStore(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ImageStoreOperations.WithLabelValues(operation, outcome).Inc()
	ImageStoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

const queryStartKey = "instaclone:query_start"

// RegisterQueryMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		name string
		reg  func(name string, fn func(*gorm.DB)) error
		post func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.reg("metrics:before_"+s.name, before); err != nil {
			return err
		}
		if err := s.post("metrics:after_"+s.name, after(s.name)); err != nil {
			return err
		}
	}
	return nil
}
