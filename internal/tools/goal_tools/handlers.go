package goal_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/batch"
	"github.com/teemow/didagoals/internal/tools/common"
)

func handleCreateGoal(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		title, err := common.RequiredString(args, "title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		goalType, err := common.RequiredString(args, "type")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		goal, err := sc.Repository().Create(ctx, goals.CreateRequest{
			Title:       title,
			Type:        goals.Type(goalType),
			Keywords:    common.OptionalString(args, "keywords"),
			Description: common.OptionalString(args, "description"),
			DueDate:     common.OptionalString(args, "due_date"),
			StartDate:   common.OptionalString(args, "start_date"),
			Frequency:   common.OptionalString(args, "frequency"),
		})
		if err != nil {
			return common.ErrorResult("create goal", err), nil
		}
		return common.JSONResult(goal)
	}
}

func handleGetGoals(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		result, err := sc.Repository().List(ctx, goals.Filter{
			Type:     goals.Type(common.OptionalString(args, "type")),
			Status:   goals.Status(common.OptionalString(args, "status")),
			Keywords: common.OptionalString(args, "keywords"),
		})
		if err != nil {
			return common.ErrorResult("list goals", err), nil
		}
		if result.Goals == nil {
			result.Goals = []goals.Goal{}
		}
		return common.JSONResult(result)
	}
}

func handleGetGoal(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := common.RequiredString(request.GetArguments(), "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		goal, err := sc.Repository().Get(ctx, id)
		if err != nil {
			return common.ErrorResult("get goal", err), nil
		}
		return common.JSONResult(goal)
	}
}

func handleUpdateGoal(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id, err := common.RequiredString(args, "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		patch := goals.Patch{
			Title:       common.StringPtr(args, "title"),
			Keywords:    common.StringPtr(args, "keywords"),
			Description: common.StringPtr(args, "description"),
			DueDate:     common.StringPtr(args, "due_date"),
			StartDate:   common.StringPtr(args, "start_date"),
			Frequency:   common.StringPtr(args, "frequency"),
		}
		if v := common.StringPtr(args, "type"); v != nil {
			t := goals.Type(*v)
			patch.Type = &t
		}
		if v := common.StringPtr(args, "status"); v != nil {
			s := goals.Status(*v)
			patch.Status = &s
		}
		pct, ok, err := common.Int(args, "progress")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			patch.Progress = &pct
		}

		goal, err := sc.Repository().Update(ctx, id, patch)
		if err != nil {
			return common.ErrorResult("update goal", err), nil
		}
		return common.JSONResult(goal)
	}
}

func handleDeleteGoal(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := batch.ParseStringOrArray(request.GetArguments()["goal_ids"], "goal_ids")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results := batch.Process(ctx, ids, func(ctx context.Context, id string) (string, error) {
			if err := sc.Repository().Delete(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("goal %s deleted", id), nil
		})

		summary := batch.Summarize(results)
		if summary.Successful == 0 {
			return mcp.NewToolResultError(batch.FormatResults(results)), nil
		}
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleRecordProgress(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		id, err := common.RequiredString(args, "goal_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		pct, ok, err := common.Int(args, "progress")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError("progress is required"), nil
		}

		goal, err := sc.Repository().RecordProgress(ctx, id, pct, common.OptionalString(args, "note"))
		if err != nil {
			return common.ErrorResult("record goal progress", err), nil
		}
		return common.JSONResult(goal)
	}
}

func handleMatchTask(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		title, err := common.RequiredString(args, "task_title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		minScore, err := common.Float(args, "min_score", goals.DefaultMinScore)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		matches, err := sc.Matcher().Match(ctx, title, common.OptionalString(args, "task_content"), minScore)
		if err != nil {
			return common.ErrorResult("match task with goals", err), nil
		}
		if matches == nil {
			matches = []goals.Match{}
		}
		return common.JSONResult(matches)
	}
}
