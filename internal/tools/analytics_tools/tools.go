package analytics_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/didagoals/internal/analytics"
	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/common"
)

const forceRefreshDescription = "Reload goals and tasks from the task service instead of using cached data"

// RegisterAnalyticsTools registers all analytics tools with the MCP server.
// They never write, so they are available in read-only mode.
func RegisterAnalyticsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	register := func(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) {
		s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, false, sc, handler))
	}

	register(mcp.NewTool("get_goal_statistics",
		mcp.WithDescription("Count goals by type and status, with completion rate and average progress"),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handleGoalStatistics(sc))

	register(mcp.NewTool("get_goal_progress",
		mcp.WithDescription("Get the recorded progress history of a goal, oldest first"),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
	), handleGoalProgress(sc))

	register(mcp.NewTool("get_task_statistics",
		mcp.WithDescription("Summarize tasks created in the last N days, with a per-day histogram and average completion time in hours"),
		mcp.WithNumber("days", mcp.Description(fmt.Sprintf("Window size in days, today included (default %d)", analytics.DefaultTaskWindowDays))),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handleTaskStatistics(sc))

	register(mcp.NewTool("extract_task_keywords",
		mcp.WithDescription("List the most frequent terms across all task titles and descriptions"),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Number of terms to return (default %d)", analytics.DefaultKeywordLimit))),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handleExtractKeywords(sc))

	register(mcp.NewTool("predict_goal_completion",
		mcp.WithDescription("Predict whether a goal will be completed on time from its dates and current progress"),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handlePredictCompletion(sc))

	register(mcp.NewTool("generate_goal_report",
		mcp.WithDescription("Build a report for a goal: the goal, its progress history, a completion prediction and related tasks"),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handleGoalReport(sc))

	register(mcp.NewTool("generate_weekly_summary",
		mcp.WithDescription("Summarize goals updated and tasks created in the current week (Monday to Sunday)"),
		mcp.WithBoolean("force_refresh", mcp.Description(forceRefreshDescription)),
	), handleWeeklySummary(sc))

	return nil
}

func handleGoalStatistics(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		force := common.Bool(request.GetArguments(), "force_refresh")
		return common.JSONResult(sc.Aggregator().GoalStatistics(ctx, force))
	}
}

func handleGoalProgress(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := common.RequiredString(request.GetArguments(), "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Aggregator().GoalProgress(ctx, id))
	}
}

func handleTaskStatistics(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		days, _, err := common.Int(args, "days")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Aggregator().TaskStatistics(ctx, days, common.Bool(args, "force_refresh")))
	}
}

func handleExtractKeywords(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		limit, _, err := common.Int(args, "limit")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Aggregator().ExtractTaskKeywords(ctx, limit, common.Bool(args, "force_refresh")))
	}
}

func handlePredictCompletion(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		id, err := common.RequiredString(args, "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Aggregator().PredictGoalCompletion(ctx, id, common.Bool(args, "force_refresh")))
	}
}

func handleGoalReport(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		id, err := common.RequiredString(args, "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Aggregator().GoalReport(ctx, id, common.Bool(args, "force_refresh")))
	}
}

func handleWeeklySummary(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		force := common.Bool(request.GetArguments(), "force_refresh")
		return common.JSONResult(sc.Aggregator().WeeklySummary(ctx, force))
	}
}
