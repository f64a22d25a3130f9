package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func sumPoints(t *testing.T, rm metricdata.ResourceMetrics, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			return sum.DataPoints
		}
	}
	return nil
}

func total(points []metricdata.DataPoint[int64]) int64 {
	var n int64
	for _, p := range points {
		n += p.Value
	}
	return n
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/mcp", 401, 5*time.Millisecond)

	points := sumPoints(t, collect(t, reader), "http_requests_total")
	assert.Len(t, points, 2)
	assert.EqualValues(t, 2, total(points))
}

func TestMetrics_RecordUpstreamOperation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordUpstreamOperation(ctx, ServiceDida, OperationList, StatusSuccess, 200*time.Millisecond)
	m.RecordUpstreamOperation(ctx, ServiceDida, OperationList, StatusSuccess, 150*time.Millisecond)
	m.RecordUpstreamOperation(ctx, ServiceProgress, OperationRecord, StatusError, time.Millisecond)

	points := sumPoints(t, collect(t, reader), "upstream_api_operations_total")
	require.Len(t, points, 2)
	for _, p := range points {
		svc, ok := p.Attributes.Value(attrService)
		require.True(t, ok)
		switch svc.AsString() {
		case ServiceDida:
			assert.EqualValues(t, 2, p.Value)
		case ServiceProgress:
			assert.EqualValues(t, 1, p.Value)
		default:
			t.Errorf("unexpected service %q", svc.AsString())
		}
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	m.RecordToolInvocation(context.Background(), "get_goals", StatusSuccess, 10*time.Millisecond)

	points := sumPoints(t, collect(t, reader), "mcp_tool_invocations_total")
	require.Len(t, points, 1)
	tool, _ := points[0].Attributes.Value(attrTool)
	assert.Equal(t, "get_goals", tool.AsString())
}

func TestMetrics_RecordGoalSkipped(t *testing.T) {
	tests := []struct {
		name       string
		detailed   bool
		wantReason bool
	}{
		{name: "default labels", detailed: false, wantReason: false},
		{name: "detailed labels", detailed: true, wantReason: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t, tt.detailed)
			m.RecordGoalSkipped(context.Background(), `invalid type: unknown goal type "weekly"`)

			points := sumPoints(t, collect(t, reader), "goals_skipped_total")
			require.Len(t, points, 1)
			reason, ok := points[0].Attributes.Value(attribute.Key(attrReason))
			assert.Equal(t, tt.wantReason, ok)
			if tt.wantReason {
				assert.Equal(t, "invalid type", reason.AsString())
			}
		})
	}
}

func TestMetrics_TokenRefreshAndEvents(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordTokenRefresh(ctx, ServiceDida, RefreshResultSuccess)
	m.RecordGoalEvent(ctx, "created", StatusSuccess)
	m.RecordGoalEvent(ctx, "deleted", StatusError)

	rm := collect(t, reader)
	assert.EqualValues(t, 1, total(sumPoints(t, rm, "oauth_token_refresh_total")))
	assert.EqualValues(t, 2, total(sumPoints(t, rm, "goal_events_published_total")))
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	m := &Metrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
		m.RecordUpstreamOperation(ctx, ServiceDida, OperationList, StatusSuccess, time.Millisecond)
		m.RecordTokenRefresh(ctx, ServiceDida, RefreshResultFailure)
		m.RecordToolInvocation(ctx, "get_goal", StatusError, time.Millisecond)
		m.RecordGoalSkipped(ctx, "bad")
		m.RecordGoalEvent(ctx, "created", StatusSuccess)
	})
}

func TestMetrics_FromDisabledProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider.Metrics())

	assert.NotPanics(t, func() {
		provider.Metrics().RecordToolInvocation(context.Background(), "get_goal", StatusSuccess, time.Millisecond)
	})
}
