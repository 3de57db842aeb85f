package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anonrelay_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MatchesSealedTotal counts successful room seals by path (simple/advanced_queue/advanced_pool).
	MatchesSealedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_matches_sealed_total",
		Help: "Total number of rooms sealed, by matching path",
	}, []string{"path"})

	// MessagesRelayedTotal counts relayed messages by outcome (forwarded,
	// blocked_by_filter, forbidden, partner_gone, not_in_room).
	MessagesRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_messages_relayed_total",
		Help: "Total number of inbound messages processed by the relay, by outcome",
	}, []string{"outcome"})

	// StrikesTotal counts content-filter strikes issued, by reason.
	StrikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_strikes_total",
		Help: "Total number of filter strikes issued, by reason",
	}, []string{"reason"})

	// ReportsTotal counts user reports filed.
	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonrelay_reports_total",
		Help: "Total number of reports filed by users",
	})

	// OpsDashboardConnections is the gauge of connected ops-dashboard
	// websocket clients.
	OpsDashboardConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anonrelay_ops_dashboard_connections",
		Help: "Number of connected ops-dashboard WebSocket clients",
	})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "anonrelay_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonrelay_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}

// OpsConnectionMetrics tracks ops-dashboard WebSocket connection and event
// counts for the Hub.
type OpsConnectionMetrics struct{}

// NewOpsConnectionMetrics returns a new OpsConnectionMetrics instance.
func NewOpsConnectionMetrics() *OpsConnectionMetrics {
	return &OpsConnectionMetrics{}
}

// Connected records a newly registered ops-dashboard client.
func (*OpsConnectionMetrics) Connected() {
	OpsDashboardConnections.Inc()
	WebSocketConnectionsTotal.Inc()
}

// Disconnected records a deregistered ops-dashboard client.
func (*OpsConnectionMetrics) Disconnected() {
	OpsDashboardConnections.Dec()
	WebSocketConnectionsTotal.Dec()
}

// RecordWebSocketEvent increments the WebSocket events counter for the event type.
func (*OpsConnectionMetrics) RecordWebSocketEvent(eventType string) {
	WebSocketEventsTotal.WithLabelValues(eventType).Inc()
}

// TracingContextKey is the type for context keys used in tracing.
type TracingContextKey string

const (
	// TraceIDKey is the context key for trace ID.
	TraceIDKey TracingContextKey = "trace_id"
	// SpanIDKey is the context key for span ID.
	SpanIDKey TracingContextKey = "span_id"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey TracingContextKey = "correlation_id"
)

// ExtractTraceID returns the trace ID from the context if set.
func ExtractTraceID(ctx context.Context) string {
	if id := ctx.Value(TraceIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// ExtractCorrelationIDFromTracing returns the correlation ID from the context if set.
func ExtractCorrelationIDFromTracing(ctx context.Context) string {
	if id := ctx.Value(CorrelationIDKey); id != nil {
		return id.(string)
	}
	return ""
}

// NewSpanContext returns a context with trace and span ID values set.
func NewSpanContext(traceID, spanID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, TraceIDKey, traceID)
	ctx = context.WithValue(ctx, SpanIDKey, spanID)
	return ctx
}

// WithCorrelationIDFromTracing returns a context with the correlation ID set.
func WithCorrelationIDFromTracing(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GenerateTraceID returns a new trace ID string.
func GenerateTraceID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// GenerateSpanID returns a new span ID string.
// GenerateSpanID returns a new span ID string.
func GenerateSpanID() string {
	return strconv.FormatInt(time.Now().UnixNano()%10000000000, 36)
}
