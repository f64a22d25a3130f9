package analytics

import (
	"context"
	"sync"

	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/logging"
)

// Cache memoizes the collections analytics are computed from. Each slot is
// filled on first use and kept until Invalidate or a forced refresh.
// Failed loads are not cached.
type Cache struct {
	mu sync.Mutex

	goals    []goals.Goal
	tasks    []host.Item
	projects []host.Container

	haveGoals    bool
	haveTasks    bool
	haveProjects bool
}

// Invalidate empties every slot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goals, c.tasks, c.projects = nil, nil, nil
	c.haveGoals, c.haveTasks, c.haveProjects = false, false, false
}

func loadSlot[T any](c *Cache, have *bool, slot *[]T, force bool, load func() ([]T, error)) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if *have && !force {
		return *slot, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	*slot, *have = v, true
	return v, nil
}

func (a *Aggregator) loadTasks(ctx context.Context, force bool) []host.Item {
	items, err := loadSlot(a.cache, &a.cache.haveTasks, &a.cache.tasks, force, func() ([]host.Item, error) {
		return a.source.ListItems(ctx, "")
	})
	if err != nil {
		a.logger.Warn("failed to load tasks for analytics", logging.KeyError, err.Error())
		return []host.Item{}
	}
	return items
}

func (a *Aggregator) loadProjects(ctx context.Context, force bool) []host.Container {
	cs, err := loadSlot(a.cache, &a.cache.haveProjects, &a.cache.projects, force, func() ([]host.Container, error) {
		return a.source.ListContainers(ctx)
	})
	if err != nil {
		a.logger.Warn("failed to load projects for analytics", logging.KeyError, err.Error())
		return []host.Container{}
	}
	return cs
}

func (a *Aggregator) loadGoals(ctx context.Context, force bool) []goals.Goal {
	// Projects are loaded first so the goal slot never holds the cache lock
	// while waiting on another slot.
	projects := a.loadProjects(ctx, force)

	gs, err := loadSlot(a.cache, &a.cache.haveGoals, &a.cache.goals, force, func() ([]goals.Goal, error) {
		res, err := a.repo.List(ctx, goals.Filter{})
		if err != nil {
			return nil, err
		}
		goalContainer, err := a.repo.FindContainer(ctx)
		if err != nil {
			return nil, err
		}
		out := append([]goals.Goal{}, res.Goals...)
		for _, c := range projects {
			if goalContainer != nil && c.ID == goalContainer.ID {
				continue
			}
			if isGoalProject(c.Name) {
				out = append(out, projectGoal(c))
			}
		}
		return out, nil
	})
	if err != nil {
		a.logger.Warn("failed to load goals for analytics", logging.KeyError, err.Error())
		return []goals.Goal{}
	}
	return gs
}
