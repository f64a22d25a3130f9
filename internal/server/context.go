package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teemow/didagoals/internal/analytics"
	"github.com/teemow/didagoals/internal/events"
	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/progress"
	"github.com/teemow/didagoals/internal/relevance"
)

// Dependencies are the collaborators a ServerContext is built from. Only
// Source is required.
type Dependencies struct {
	Source        host.Source
	Backend       string
	Store         progress.Store
	Publisher     events.Publisher
	Analyzer      *relevance.Analyzer
	Location      *time.Location
	ContainerName string
	Logger        logging.Logger
	Metrics       *instrumentation.Metrics
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// ServerContext holds the services shared by all tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	backend     string
	source      host.Source
	store       progress.Store
	publisher   events.Publisher
	repo        *goals.Repository
	matcher     *goals.Matcher
	aggregator  *analytics.Aggregator
	logger      logging.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext wires the goal services on top of deps.
func NewServerContext(ctx context.Context, deps Dependencies) (*ServerContext, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("host source is required")
	}
	if deps.Store == nil {
		deps.Store = progress.NewMemoryStore()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = logging.DefaultLogger()
	}
	if deps.ContainerName == "" {
		deps.ContainerName = goals.DefaultContainerName
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		backend:   deps.Backend,
		source:    deps.Source,
		store:     progress.Instrumented(deps.Store, deps.Metrics),
		publisher: events.Instrumented(deps.Publisher, deps.Metrics),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}

	sc.repo = goals.NewRepository(sc.source, sc.store,
		goals.WithClock(deps.Clock),
		goals.WithLocation(deps.Location),
		goals.WithContainerName(deps.ContainerName),
		goals.WithPublisher(sc.publisher),
		goals.WithLogger(deps.Logger),
		goals.WithSkipHook(sc.recordSkipped),
	)
	sc.matcher = goals.NewMatcher(sc.repo, deps.Analyzer)

	aggOpts := []analytics.Option{
		analytics.WithClock(deps.Clock),
		analytics.WithLocation(deps.Location),
		analytics.WithLogger(deps.Logger),
	}
	if deps.Analyzer != nil {
		aggOpts = append(aggOpts, analytics.WithAnalyzer(deps.Analyzer))
	}
	sc.aggregator = analytics.NewAggregator(sc.repo, sc.source, aggOpts...)

	return sc, nil
}

func (sc *ServerContext) recordSkipped(ctx context.Context, item goals.SkippedItem) {
	if m := sc.Metrics(); m != nil {
		m.RecordGoalSkipped(ctx, item.Reason)
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Backend names the host service, dida or google.
func (sc *ServerContext) Backend() string {
	return sc.backend
}

// Source returns the host task service.
func (sc *ServerContext) Source() host.Source {
	return sc.source
}

// Repository returns the goal repository.
func (sc *ServerContext) Repository() *goals.Repository {
	return sc.repo
}

// Matcher returns the task to goal matcher.
func (sc *ServerContext) Matcher() *goals.Matcher {
	return sc.matcher
}

// Aggregator returns the analytics aggregator.
func (sc *ServerContext) Aggregator() *analytics.Aggregator {
	return sc.aggregator
}

// Logger returns the logger.
func (sc *ServerContext) Logger() logging.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the event publisher and
// the progress store. Calling it again is a no-op.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	var errs []error
	if err := sc.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
	}
	if err := sc.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close progress store: %w", err))
	}
	return errors.Join(errs...)
}
