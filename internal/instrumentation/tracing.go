package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for every span the server creates.
const TracerName = "github.com/teemow/didagoals"

// Span attribute keys.
const (
	SpanAttrTool        = "mcp.tool"
	SpanAttrReadOnly    = "mcp.read_only"
	SpanAttrService     = "upstream.service" // dida, google_tasks, progress, events
	SpanAttrOperation   = "upstream.operation"
	SpanAttrGoalID      = "goal.id"
	SpanAttrContainerID = "host.container_id"
)

// SpanAttributeBuilder collects span attributes under the keys above.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{}
}

func (b *SpanAttributeBuilder) add(kv attribute.KeyValue) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, kv)
	return b
}

func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	return b.add(attribute.String(SpanAttrTool, tool))
}

func (b *SpanAttributeBuilder) WithService(service string) *SpanAttributeBuilder {
	return b.add(attribute.String(SpanAttrService, service))
}

func (b *SpanAttributeBuilder) WithOperation(operation string) *SpanAttributeBuilder {
	return b.add(attribute.String(SpanAttrOperation, operation))
}

// WithGoal is a no-op for an empty id.
func (b *SpanAttributeBuilder) WithGoal(goalID string) *SpanAttributeBuilder {
	if goalID == "" {
		return b
	}
	return b.add(attribute.String(SpanAttrGoalID, goalID))
}

// WithContainer is a no-op for an empty id.
func (b *SpanAttributeBuilder) WithContainer(containerID string) *SpanAttributeBuilder {
	if containerID == "" {
		return b
	}
	return b.add(attribute.String(SpanAttrContainerID, containerID))
}

func (b *SpanAttributeBuilder) WithReadOnly(readOnly bool) *SpanAttributeBuilder {
	return b.add(attribute.Bool(SpanAttrReadOnly, readOnly))
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func startSpan(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
}

// StartToolSpan starts the server span "tool.<name>" of an MCP tool call.
// The caller ends the span.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)
	return startSpan(ctx, "tool."+toolName, trace.SpanKindServer, all)
}

// StartUpstreamSpan starts the client span "<service>.<operation>" of a call
// to the task host, the progress store or the event publisher.
func StartUpstreamSpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return startSpan(ctx, service+"."+operation, trace.SpanKindClient, all)
}

// SetSpanError records err on span. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
