package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs a synchronous in-memory tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrsOf(kvs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("update_goal").
		WithService(ServiceDida).
		WithOperation(OperationUpdate).
		WithGoal("goal-1").
		WithContainer("project-1").
		WithReadOnly(false).
		Build()

	assert.Equal(t, map[string]any{
		SpanAttrTool:        "update_goal",
		SpanAttrService:     ServiceDida,
		SpanAttrOperation:   OperationUpdate,
		SpanAttrGoalID:      "goal-1",
		SpanAttrContainerID: "project-1",
		SpanAttrReadOnly:    false,
	}, attrsOf(attrs))
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("get_goals").
		WithGoal("").
		WithContainer("").
		Build()

	assert.Len(t, attrs, 1, "empty goal and container ids are dropped")
}

func TestStartToolSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartToolSpan(context.Background(), "get_goal",
		NewSpanAttributeBuilder().WithGoal("g1").Build()...)
	SetSpanSuccess(span)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tool.get_goal", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	attrs := attrsOf(ended[0].Attributes())
	assert.Equal(t, "get_goal", attrs[SpanAttrTool])
	assert.Equal(t, "g1", attrs[SpanAttrGoalID])
}

func TestStartUpstreamSpan_NestsUnderToolSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, parent := StartToolSpan(context.Background(), "get_goals")
	_, child := StartUpstreamSpan(ctx, ServiceDida, OperationList)
	child.End()
	parent.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)

	upstream := ended[0]
	assert.Equal(t, "dida.list", upstream.Name())
	assert.Equal(t, trace.SpanKindClient, upstream.SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), upstream.Parent().SpanID())

	attrs := attrsOf(upstream.Attributes())
	assert.Equal(t, ServiceDida, attrs[SpanAttrService])
	assert.Equal(t, OperationList, attrs[SpanAttrOperation])
}

func TestSetSpanError(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartUpstreamSpan(context.Background(), ServiceProgress, OperationCreate)
	SetSpanError(span, nil)
	SetSpanError(span, errors.New("database is locked"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "database is locked", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1, "only the non-nil error is recorded")
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}
