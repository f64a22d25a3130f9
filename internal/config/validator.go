package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/teemow/didagoals/internal/progress"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !slices.Contains([]string{BackendDida, BackendGoogle}, c.Backend) {
		add("backend", c.Backend, "must be dida or google")
	}
	if strings.TrimSpace(c.Goals.ContainerName) == "" {
		add("goals.container_name", c.Goals.ContainerName, "must not be empty")
	}
	if _, err := time.LoadLocation(c.Goals.Timezone); err != nil {
		add("goals.timezone", c.Goals.Timezone, "unknown time zone")
	}

	switch c.Progress.Store {
	case progress.KindMemory:
	case progress.KindSQLite:
		if c.Progress.SQLitePath == "" {
			add("progress.sqlite_path", c.Progress.SQLitePath, "required for the sqlite store")
		}
	case progress.KindRedis:
		if c.Progress.RedisURL == "" {
			add("progress.redis_url", c.Progress.RedisURL, "required for the redis store")
		}
	default:
		add("progress.store", c.Progress.Store, "must be memory, sqlite or redis")
	}

	if c.Events.NATSURL != "" {
		if u, err := url.Parse(c.Events.NATSURL); err != nil || u.Scheme == "" {
			add("events.nats_url", c.Events.NATSURL, "must be a URL such as nats://localhost:4222")
		}
	}
	return errs
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Goals.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
