package goal_tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host/hosttest"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/progress"
	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/batch"
	"github.com/teemow/didagoals/internal/tools/common"
)

var today = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newServerContext(t *testing.T) (*server.ServerContext, *hosttest.Source) {
	t.Helper()
	source := hosttest.New()
	sc, err := server.NewServerContext(context.Background(), server.Dependencies{
		Source:   source,
		Backend:  "dida",
		Store:    progress.NewMemoryStore(),
		Location: time.UTC,
		Logger:   logging.DiscardLogger(),
		Clock:    func() time.Time { return today },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, source
}

func call(t *testing.T, handler mcpserver.ToolHandlerFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, common.ResultText(result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(common.ResultText(result)), &v))
	return v
}

func createGoal(t *testing.T, sc *server.ServerContext, args map[string]any) goals.Goal {
	t.Helper()
	return decode[goals.Goal](t, call(t, handleCreateGoal(sc), args))
}

func TestRegisterGoalTools(t *testing.T) {
	sc, _ := newServerContext(t)

	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read only",
			readOnly: true,
			want:     []string{"get_goal", "get_goals", "match_task_with_goals"},
		},
		{
			name: "read write",
			want: []string{
				"create_goal", "delete_goal", "get_goal", "get_goals",
				"match_task_with_goals", "record_goal_progress", "update_goal",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterGoalTools(s, sc, tt.readOnly))

			var names []string
			for name := range s.ListTools() {
				names = append(names, name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}

	assert.Error(t, RegisterGoalTools(mcpserver.NewMCPServer("test", "0.0.0"), nil, false))
}

func TestCreateGoal(t *testing.T) {
	sc, source := newServerContext(t)

	goal := createGoal(t, sc, map[string]any{
		"title":    "Learn Go",
		"type":     "phase",
		"keywords": "go, golang",
		"due_date": "2025-06-30",
	})

	assert.Equal(t, "Learn Go", goal.Title)
	assert.Equal(t, goals.TypePhase, goal.Type)
	assert.Equal(t, goals.StatusActive, goal.Status)
	assert.Equal(t, "2025-06-30", goal.DueDate)
	assert.Equal(t, []string{goals.DefaultContainerName}, source.ContainerNames())
}

func TestCreateGoal_Invalid(t *testing.T) {
	sc, _ := newServerContext(t)

	tests := []struct {
		name    string
		args    map[string]any
		contain string
	}{
		{name: "missing title", args: map[string]any{"type": "phase"}, contain: "title is required"},
		{name: "missing type", args: map[string]any{"title": "x"}, contain: "type is required"},
		{name: "unknown type", args: map[string]any{"title": "x", "type": "dream"}, contain: "type"},
		{name: "phase without due date", args: map[string]any{"title": "x", "type": "phase"}, contain: "due date"},
		{name: "habit without frequency", args: map[string]any{"title": "x", "type": "habit"}, contain: "frequency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, handleCreateGoal(sc), tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, common.ResultText(result), tt.contain)
		})
	}
}

func TestGetGoals(t *testing.T) {
	sc, _ := newServerContext(t)

	empty := decode[goals.ListResult](t, call(t, handleGetGoals(sc), nil))
	assert.Empty(t, empty.Goals)

	createGoal(t, sc, map[string]any{"title": "Run daily", "type": "habit", "frequency": "daily", "keywords": "run"})
	createGoal(t, sc, map[string]any{"title": "Read books", "type": "permanent", "keywords": "read"})

	all := decode[goals.ListResult](t, call(t, handleGetGoals(sc), map[string]any{}))
	assert.Len(t, all.Goals, 2)

	habits := decode[goals.ListResult](t, call(t, handleGetGoals(sc), map[string]any{"type": "habit"}))
	require.Len(t, habits.Goals, 1)
	assert.Equal(t, "Run daily", habits.Goals[0].Title)

	byKeyword := decode[goals.ListResult](t, call(t, handleGetGoals(sc), map[string]any{"keywords": "read"}))
	require.Len(t, byKeyword.Goals, 1)
	assert.Equal(t, "Read books", byKeyword.Goals[0].Title)
}

func TestGetGoal(t *testing.T) {
	sc, _ := newServerContext(t)
	created := createGoal(t, sc, map[string]any{"title": "Read books", "type": "permanent"})

	got := decode[goals.Goal](t, call(t, handleGetGoal(sc), map[string]any{"goal_id": created.ID}))
	assert.Equal(t, created.ID, got.ID)

	missing := call(t, handleGetGoal(sc), map[string]any{"goal_id": "nope"})
	assert.True(t, missing.IsError)
	assert.Contains(t, common.ResultText(missing), "nope")

	noID := call(t, handleGetGoal(sc), map[string]any{})
	assert.Equal(t, "goal_id is required", common.ResultText(noID))
}

func TestUpdateGoal(t *testing.T) {
	sc, _ := newServerContext(t)
	created := createGoal(t, sc, map[string]any{"title": "Ship v1", "type": "phase", "due_date": "2025-04-01"})

	updated := decode[goals.Goal](t, call(t, handleUpdateGoal(sc), map[string]any{
		"goal_id":  created.ID,
		"title":    "Ship v1.0",
		"progress": 40.0,
	}))
	assert.Equal(t, "Ship v1.0", updated.Title)
	assert.Equal(t, 40, updated.Progress)
	assert.Equal(t, "2025-04-01", updated.DueDate)

	completed := decode[goals.Goal](t, call(t, handleUpdateGoal(sc), map[string]any{
		"goal_id": created.ID,
		"status":  "completed",
	}))
	assert.Equal(t, goals.StatusCompleted, completed.Status)

	bad := call(t, handleUpdateGoal(sc), map[string]any{"goal_id": created.ID, "progress": 140.0})
	assert.True(t, bad.IsError)
	assert.Contains(t, common.ResultText(bad), "progress")

	fraction := call(t, handleUpdateGoal(sc), map[string]any{"goal_id": created.ID, "progress": 12.5})
	assert.Equal(t, "progress must be an integer", common.ResultText(fraction))
}

func TestDeleteGoal(t *testing.T) {
	sc, _ := newServerContext(t)
	a := createGoal(t, sc, map[string]any{"title": "A", "type": "permanent"})
	b := createGoal(t, sc, map[string]any{"title": "B", "type": "permanent"})

	result := call(t, handleDeleteGoal(sc), map[string]any{"goal_ids": []any{a.ID, "missing", b.ID}})
	summary := decode[batch.Summary](t, result)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, batch.StatusError, summary.Results[1].Status)

	left := decode[goals.ListResult](t, call(t, handleGetGoals(sc), nil))
	assert.Empty(t, left.Goals)

	allFailed := call(t, handleDeleteGoal(sc), map[string]any{"goal_ids": "missing"})
	assert.True(t, allFailed.IsError)

	noIDs := call(t, handleDeleteGoal(sc), map[string]any{})
	assert.Equal(t, "goal_ids is required", common.ResultText(noIDs))
}

func TestRecordGoalProgress(t *testing.T) {
	sc, _ := newServerContext(t)
	created := createGoal(t, sc, map[string]any{"title": "Write book", "type": "permanent"})

	got := decode[goals.Goal](t, call(t, handleRecordProgress(sc), map[string]any{
		"goal_id":  created.ID,
		"progress": 25.0,
		"note":     "chapter one",
	}))
	assert.Equal(t, 25, got.Progress)

	history, err := sc.Repository().ProgressHistory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "chapter one", history[0].Note)

	missing := call(t, handleRecordProgress(sc), map[string]any{"goal_id": created.ID})
	assert.Equal(t, "progress is required", common.ResultText(missing))
}

func TestMatchTaskWithGoals(t *testing.T) {
	sc, _ := newServerContext(t)
	createGoal(t, sc, map[string]any{"title": "Marathon training", "type": "permanent", "keywords": "run,marathon"})
	createGoal(t, sc, map[string]any{"title": "Learn piano", "type": "permanent", "keywords": "piano"})

	matches := decode[[]goals.Match](t, call(t, handleMatchTask(sc), map[string]any{
		"task_title":   "Morning run",
		"task_content": "10km easy pace",
	}))
	require.Len(t, matches, 1)
	assert.Equal(t, "Marathon training", matches[0].Goal.Title)
	assert.GreaterOrEqual(t, matches[0].Score, 0.7)

	none := decode[[]goals.Match](t, call(t, handleMatchTask(sc), map[string]any{"task_title": "Buy milk"}))
	assert.Empty(t, none)

	missing := call(t, handleMatchTask(sc), map[string]any{})
	assert.Equal(t, "task_title is required", common.ResultText(missing))
}
