package progress

import (
	"context"
	"fmt"
	"time"
)

// Record is a single progress observation.
type Record struct {
	GoalID     string    `json:"goal_id"`
	Progress   int       `json:"progress"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks the record before it is stored.
func (r Record) Validate() error {
	if r.GoalID == "" {
		return fmt.Errorf("goal id is required")
	}
	if r.Progress < 0 || r.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100, got %d", r.Progress)
	}
	if r.RecordedAt.IsZero() {
		return fmt.Errorf("recorded_at is required")
	}
	return nil
}

// Store is an append-only log of progress records per goal.
type Store interface {
	// Record appends r.
	Record(ctx context.Context, r Record) error
	// Latest returns the most recent record, or nil when the goal has none.
	Latest(ctx context.Context, goalID string) (*Record, error)
	// History returns every record for the goal, oldest first.
	History(ctx context.Context, goalID string) ([]Record, error)
	// Forget removes all records for the goal.
	Forget(ctx context.Context, goalID string) error
	Close() error
}

// Store kinds accepted by Config.Kind.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Config selects and configures a Store.
type Config struct {
	Kind           string
	SQLitePath     string
	RedisURL       string
	RedisKeyPrefix string
}

// Open returns the Store described by cfg. An empty kind means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite progress store requires a path")
		}
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case KindRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis progress store requires a URL")
		}
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unknown progress store %q", cfg.Kind)
	}
}
