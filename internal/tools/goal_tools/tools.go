package goal_tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/common"
)

// RegisterGoalTools registers all goal tools with the MCP server.
func RegisterGoalTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	s.AddTool(getGoalsTool(), common.InstrumentedToolHandler("get_goals", false, sc, handleGetGoals(sc)))
	s.AddTool(getGoalTool(), common.InstrumentedToolHandler("get_goal", false, sc, handleGetGoal(sc)))
	s.AddTool(matchTaskTool(), common.InstrumentedToolHandler("match_task_with_goals", false, sc, handleMatchTask(sc)))

	if readOnly {
		return nil
	}

	s.AddTool(createGoalTool(), common.InstrumentedToolHandler("create_goal", true, sc, handleCreateGoal(sc)))
	s.AddTool(updateGoalTool(), common.InstrumentedToolHandler("update_goal", true, sc, handleUpdateGoal(sc)))
	s.AddTool(deleteGoalTool(), common.InstrumentedToolHandler("delete_goal", true, sc, handleDeleteGoal(sc)))
	s.AddTool(recordProgressTool(), common.InstrumentedToolHandler("record_goal_progress", true, sc, handleRecordProgress(sc)))

	return nil
}

const (
	typeDescription      = "Goal type: 'phase' (has a due date), 'permanent' (ongoing) or 'habit' (recurring, needs a frequency)"
	frequencyDescription = "Recurrence for habit goals: 'daily', 'weekly:1,3,5' (ISO weekdays, Monday is 1) or 'monthly:1,15'"
	dateDescription      = "Date as YYYY-MM-DD"
)

func createGoalTool() mcp.Tool {
	return mcp.NewTool("create_goal",
		mcp.WithDescription("Create a new goal. Goals are stored as tasks in the goal project of the task service."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Goal title")),
		mcp.WithString("type", mcp.Required(), mcp.Description(typeDescription)),
		mcp.WithString("keywords", mcp.Description("Comma separated keywords used to match tasks to this goal")),
		mcp.WithString("description", mcp.Description("Free text description")),
		mcp.WithString("due_date", mcp.Description(dateDescription+". Required for phase goals.")),
		mcp.WithString("start_date", mcp.Description(dateDescription)),
		mcp.WithString("frequency", mcp.Description(frequencyDescription)),
	)
}

func getGoalsTool() mcp.Tool {
	return mcp.NewTool("get_goals",
		mcp.WithDescription("List goals, optionally filtered by type, status and keywords. Items in the goal project that cannot be read as goals are reported under 'skipped'."),
		mcp.WithString("type", mcp.Description("Filter by goal type: phase, permanent or habit")),
		mcp.WithString("status", mcp.Description("Filter by status: active or completed")),
		mcp.WithString("keywords", mcp.Description("Comma separated keywords; a goal matches when any keyword appears in it")),
	)
}

func getGoalTool() mcp.Tool {
	return mcp.NewTool("get_goal",
		mcp.WithDescription("Get a single goal by ID"),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
	)
}

func updateGoalTool() mcp.Tool {
	return mcp.NewTool("update_goal",
		mcp.WithDescription("Update a goal. Only the given fields change; pass an empty due_date to clear it. Setting progress records a progress observation."),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("type", mcp.Description(typeDescription)),
		mcp.WithString("status", mcp.Description("New status: 'active' reopens the goal, 'completed' completes it")),
		mcp.WithString("keywords", mcp.Description("Comma separated keywords")),
		mcp.WithString("description", mcp.Description("Free text description")),
		mcp.WithString("due_date", mcp.Description(dateDescription)),
		mcp.WithString("start_date", mcp.Description(dateDescription)),
		mcp.WithString("frequency", mcp.Description(frequencyDescription)),
		mcp.WithNumber("progress", mcp.Description("Progress percentage from 0 to 100")),
	)
}

func deleteGoalTool() mcp.Tool {
	return mcp.NewTool("delete_goal",
		mcp.WithDescription("Delete one or more goals. Each ID is reported separately."),
		mcp.WithString("goal_ids", mcp.Required(), mcp.Description("A goal ID, or an array of goal IDs")),
	)
}

func recordProgressTool() mcp.Tool {
	return mcp.NewTool("record_goal_progress",
		mcp.WithDescription("Record a progress observation for a goal. The history feeds completion predictions."),
		mcp.WithString("goal_id", mcp.Required(), mcp.Description("The goal ID")),
		mcp.WithNumber("progress", mcp.Required(), mcp.Description("Progress percentage from 0 to 100")),
		mcp.WithString("note", mcp.Description("Optional note")),
	)
}

func matchTaskTool() mcp.Tool {
	return mcp.NewTool("match_task_with_goals",
		mcp.WithDescription("Rank active goals by how well they match a task, best match first"),
		mcp.WithString("task_title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("task_content", mcp.Description("Task content")),
		mcp.WithNumber("min_score", mcp.Description("Minimum match score between 0 and 1 (default 0.3)")),
	)
}
