package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/didagoals/internal/instrumentation"
)

func TestInstrumented(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	m, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	ctx := context.Background()
	s := Instrumented(NewMemoryStore(), m)
	defer s.Close()

	at := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Record{GoalID: "g1", Progress: 40, RecordedAt: at}))
	require.Error(t, s.Record(ctx, Record{GoalID: "g1", Progress: 140, RecordedAt: at}))

	latest, err := s.Latest(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 40, latest.Progress)

	history, err := s.History(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	require.NoError(t, s.Forget(ctx, "g1"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "upstream_api_operations_total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				service, _ := dp.Attributes.Value(attribute.Key("service"))
				assert.Equal(t, instrumentation.ServiceProgress, service.AsString())
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[op.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"record/success":  1,
		"record/error":    1,
		"history/success": 2,
		"delete/success":  1,
	}, counts)
}
