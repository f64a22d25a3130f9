package common

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. write marks tools that mutate goals.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", false, sc, handler))
func InstrumentedToolHandler(
	toolName string,
	write bool,
	sc *server.ServerContext,
	handler mcpserver.ToolHandlerFunc,
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		goalID := GoalIDFromArgs(args)

		attrs := instrumentation.NewSpanAttributeBuilder().WithGoal(goalID).WithReadOnly(!write)
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		invocation := instrumentation.StartToolInvocation(ctx, toolName, write)
		invocation.GoalID = goalID
		invocation.Backend = sc.Backend()
		invocation.Arguments = args

		result, err := handler(ctx, request)

		callErr := err
		if callErr == nil && result != nil && result.IsError {
			callErr = errors.New(ResultText(result))
		}
		invocation.Finish(callErr)
		if callErr != nil {
			instrumentation.SetSpanError(span, callErr)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		status := invocation.Status()
		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, invocation.Duration)
		}
		sc.AuditLogger().Log(ctx, invocation)

		if write && status == instrumentation.StatusSuccess {
			sc.Aggregator().Invalidate()
		}

		return result, err
	}
}

// GoalIDFromArgs returns the goal_id argument, or the single entry of
// goal_ids.
func GoalIDFromArgs(args map[string]any) string {
	if id, ok := args["goal_id"].(string); ok {
		return id
	}
	if id, ok := args["goal_ids"].(string); ok {
		return id
	}
	return ""
}

// ResultText returns the text of the first text content of result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
