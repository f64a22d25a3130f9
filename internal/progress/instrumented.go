package progress

import (
	"context"
	"time"

	"github.com/teemow/didagoals/internal/instrumentation"
)

// Instrumented wraps s so every call is traced and counted under the
// progress service.
func Instrumented(s Store, m *instrumentation.Metrics) Store {
	if m == nil {
		m = &instrumentation.Metrics{}
	}
	return &instrumentedStore{next: s, metrics: m}
}

type instrumentedStore struct {
	next    Store
	metrics *instrumentation.Metrics
}

func (s *instrumentedStore) track(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceProgress, op)
	start := time.Now()
	return ctx, func(err error) {
		defer span.End()
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		}
		s.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceProgress, op, status, time.Since(start))
	}
}

func (s *instrumentedStore) Record(ctx context.Context, r Record) (err error) {
	ctx, done := s.track(ctx, instrumentation.OperationRecord)
	defer func() { done(err) }()
	return s.next.Record(ctx, r)
}

func (s *instrumentedStore) Latest(ctx context.Context, goalID string) (_ *Record, err error) {
	ctx, done := s.track(ctx, instrumentation.OperationHistory)
	defer func() { done(err) }()
	return s.next.Latest(ctx, goalID)
}

func (s *instrumentedStore) History(ctx context.Context, goalID string) (_ []Record, err error) {
	ctx, done := s.track(ctx, instrumentation.OperationHistory)
	defer func() { done(err) }()
	return s.next.History(ctx, goalID)
}

func (s *instrumentedStore) Forget(ctx context.Context, goalID string) (err error) {
	ctx, done := s.track(ctx, instrumentation.OperationDelete)
	defer func() { done(err) }()
	return s.next.Forget(ctx, goalID)
}

func (s *instrumentedStore) Close() error { return s.next.Close() }
