package events

import (
	"context"
	"time"

	"github.com/teemow/didagoals/internal/instrumentation"
)

// Instrumented wraps p so every publish is counted per event type.
func Instrumented(p Publisher, m *instrumentation.Metrics) Publisher {
	if m == nil {
		m = &instrumentation.Metrics{}
	}
	return &instrumentedPublisher{next: p, metrics: m}
}

type instrumentedPublisher struct {
	next    Publisher
	metrics *instrumentation.Metrics
}

func (p *instrumentedPublisher) Publish(ctx context.Context, evt Event) error {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceEvents, instrumentation.OperationPublish,
		instrumentation.NewSpanAttributeBuilder().WithGoal(evt.GoalID).Build()...)
	defer span.End()

	start := time.Now()
	err := p.next.Publish(ctx, evt)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	}
	p.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceEvents, instrumentation.OperationPublish, status, time.Since(start))
	p.metrics.RecordGoalEvent(ctx, string(evt.Type), status)
	return err
}

func (p *instrumentedPublisher) Close() error { return p.next.Close() }
