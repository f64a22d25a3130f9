package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrReason    = "reason"
	attrEvent     = "event"
)

// Metrics records the server's OpenTelemetry metrics. The zero value is a
// no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	upstreamOperationsTotal   metric.Int64Counter
	upstreamOperationDuration metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	goalsSkippedTotal metric.Int64Counter
	goalEventsTotal   metric.Int64Counter

	detailedLabels bool
}

var (
	httpBuckets     = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	upstreamBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

// instruments creates instruments on a meter and keeps the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s counter: %w", name, err)
	}
	return c
}

func (in *instruments) seconds(name, desc string, buckets []float64) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s histogram: %w", name, err)
	}
	return h
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		detailedLabels: detailedLabels,

		httpRequestsTotal:   in.counter("http_requests_total", "HTTP requests served", "{request}"),
		httpRequestDuration: in.seconds("http_request_duration_seconds", "HTTP request duration", httpBuckets),

		upstreamOperationsTotal:   in.counter("upstream_api_operations_total", "Calls to the task host, progress store and event bus", "{operation}"),
		upstreamOperationDuration: in.seconds("upstream_api_operation_duration_seconds", "Upstream call duration", upstreamBuckets),

		tokenRefreshTotal: in.counter("oauth_token_refresh_total", "Host OAuth token refreshes", "{attempt}"),

		toolInvocationsTotal: in.counter("mcp_tool_invocations_total", "MCP tool invocations", "{invocation}"),
		toolDuration:         in.seconds("mcp_tool_duration_seconds", "MCP tool execution duration", upstreamBuckets),

		goalsSkippedTotal: in.counter("goals_skipped_total", "Goal tasks skipped because their metadata could not be decoded", "{goal}"),
		goalEventsTotal:   in.counter("goal_events_published_total", "Goal lifecycle events handed to the publisher", "{event}"),
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordHTTPRequest records an HTTP request. Callers pass a normalized path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordUpstreamOperation records a call to service, one of the Service*
// constants. operation is one of the Operation* constants.
func (m *Metrics) RecordUpstreamOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.upstreamOperationsTotal == nil || m.upstreamOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.upstreamOperationsTotal.Add(ctx, 1, attrs)
	m.upstreamOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh records a host OAuth token refresh.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, service, result string) {
	if m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrResult, result),
	))
}

// RecordToolInvocation records an MCP tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoalSkipped counts a goal task that could not be decoded. The reason
// label is only attached with detailed labels enabled.
func (m *Metrics) RecordGoalSkipped(ctx context.Context, reason string) {
	if m.goalsSkippedTotal == nil {
		return
	}
	var attrs []attribute.KeyValue
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrReason, ReasonLabel(reason)))
	}
	m.goalsSkippedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGoalEvent counts a published goal lifecycle event.
func (m *Metrics) RecordGoalEvent(ctx context.Context, eventType, status string) {
	if m.goalEventsTotal == nil {
		return
	}
	m.goalEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrEvent, eventType),
		attribute.String(attrStatus, status),
	))
}
