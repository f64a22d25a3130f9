package instrumentation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation is one audited MCP tool call.
type ToolInvocation struct {
	Tool    string
	GoalID  string
	Backend string // dida or google_tasks
	Write   bool

	// Arguments are only logged when the audit logger includes them.
	Arguments map[string]any

	StartTime time.Time
	Duration  time.Duration
	Err       error

	TraceID string
	SpanID  string
}

// StartToolInvocation starts timing a call of tool and picks up the trace
// and span ids of the span in ctx. Call Finish when the handler returns.
func StartToolInvocation(ctx context.Context, tool string, write bool) *ToolInvocation {
	ti := &ToolInvocation{Tool: tool, Write: write, StartTime: time.Now()}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Finish stops the timer. A nil err marks the call successful.
func (ti *ToolInvocation) Finish(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Err = err
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Err != nil {
		return StatusError
	}
	return StatusSuccess
}

// LogAttrs returns the record attributes. Empty optional fields are left out.
func (ti *ToolInvocation) LogAttrs(withArguments bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Err == nil),
		slog.Bool("write", ti.Write),
	}
	optional := []struct{ key, value string }{
		{"goal_id", ti.GoalID},
		{"backend", ti.Backend},
		{"trace_id", ti.TraceID},
		{"span_id", ti.SpanID},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	if ti.Err != nil {
		attrs = append(attrs, slog.String("error", ti.Err.Error()))
	}
	if withArguments && len(ti.Arguments) > 0 {
		if raw, err := json.Marshal(ti.Arguments); err == nil {
			attrs = append(attrs, slog.String("arguments", string(raw)))
		}
	}
	return attrs
}

// AuditLogger writes one record per tool invocation. A nil AuditLogger
// discards everything.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger returns an AuditLogger writing to logger, or to the default
// logger when logger is nil.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, config: config}
}

// Log writes ti as "tool_executed" at info level, or as "tool_failed" at
// warn level.
func (al *AuditLogger) Log(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.config.Enabled {
		return
	}
	level, msg := slog.LevelInfo, "tool_executed"
	if ti.Err != nil {
		level, msg = slog.LevelWarn, "tool_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.LogAttrs(al.config.IncludeArguments)...)
}
