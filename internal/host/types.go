package host

import (
	"context"
	"time"
)

// Container is a host-side grouping of items: a project or task list.
type Container struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed,omitempty"`
}

// Item is a single host task.
type Item struct {
	ID          string     `json:"id"`
	ContainerID string     `json:"container_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    int        `json:"priority"`
	CreatedAt   *time.Time `json:"created_time,omitempty"`
	ModifiedAt  *time.Time `json:"modified_time,omitempty"`
	CompletedAt *time.Time `json:"completed_time,omitempty"`
}

// ItemInput describes an item to create.
type ItemInput struct {
	Title    string
	Content  string
	DueDate  *time.Time
	Priority int
}

// ItemPatch is a partial update. Nil fields are left untouched. ClearDueDate
// removes an existing due date.
type ItemPatch struct {
	Title        *string
	Content      *string
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
	Priority     *int
}

// Source is the set of host operations the goal layer relies on.
type Source interface {
	ListContainers(ctx context.Context) ([]Container, error)
	CreateContainer(ctx context.Context, name string) (*Container, error)
	// ListItems returns the items of containerID, or of every container when
	// containerID is empty.
	ListItems(ctx context.Context, containerID string) ([]Item, error)
	CreateItem(ctx context.Context, containerID string, in ItemInput) (*Item, error)
	UpdateItem(ctx context.Context, containerID, id string, patch ItemPatch) (*Item, error)
	DeleteItem(ctx context.Context, containerID, id string) error
	MarkComplete(ctx context.Context, containerID, id string) error
}
