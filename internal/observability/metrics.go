// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// DatabaseQueryLatency records query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tubbit_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// OTPEvents counts OTP lifecycle events (sent, verified, rejected, expired, mail_failed).
	OTPEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubbit_otp_events_total",
		Help: "OTP send and verification outcomes",
	}, []string{"event"})

	// SearchRequests counts video searches by match mode (exact, related, none).
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubbit_video_search_total",
		Help: "Video searches by match mode",
	}, []string{"mode"})

	// WatchHistoryTrimmed counts entries evicted past the per-user cap.
	WatchHistoryTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubbit_watch_history_trimmed_total",
		Help: "Watch history entries evicted beyond the per-user cap",
	})

	// MediaUploads counts media uploads by kind and result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubbit_media_uploads_total",
		Help: "Media uploads to object storage",
	}, []string{"kind", "result"})

	// NotificationsPublished counts realtime events published by type.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubbit_notifications_published_total",
		Help: "Realtime notifications published by event type",
	}, []string{"event_type"})

	// WebSocketConnectionsTotal is the number of open notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tubbit_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubbit_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

const queryStartKey = "tubbit:query_start"

// RegisterGormMetrics installs callbacks that feed DatabaseQueryLatency.
func RegisterGormMetrics(db *gorm.DB) error {
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
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
