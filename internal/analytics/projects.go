package analytics

import (
	"strings"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/relevance"
)

var goalProjectMarkers = []string{"目标", "Goal", "[目标]", "[Goal]"}

// isGoalProject reports whether a container name marks the whole container
// as a goal.
func isGoalProject(name string) bool {
	for _, m := range goalProjectMarkers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// projectGoal maps a goal-marked container to a project-based goal.
func projectGoal(c host.Container) goals.Goal {
	status := goals.StatusActive
	if c.Closed {
		status = goals.StatusArchived
	}
	return goals.Goal{
		ID:          c.ID,
		Title:       c.Name,
		Type:        goals.TypeProjectBased,
		Status:      status,
		Keywords:    relevance.JoinKeywords(strings.Fields(c.Name)),
		ContainerID: c.ID,
	}
}
