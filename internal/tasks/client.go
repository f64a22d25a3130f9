package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/instrumentation"
)

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different API root.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.clientOpts = append(c.clientOpts, option.WithEndpoint(endpoint)) }
}

// WithMetrics records every API call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLocation sets the zone due dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// Client wraps the Google Tasks service.
type Client struct {
	svc        *tasks.Service
	metrics    *instrumentation.Metrics
	loc        *time.Location
	clientOpts []option.ClientOption
}

var _ host.Source = (*Client)(nil)

// NewClient creates a Tasks client sending requests through httpClient,
// which must already carry OAuth credentials.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	c := &Client{
		metrics: &instrumentation.Metrics{},
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}

	svc, err := tasks.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// ListContainers lists all task lists.
func (c *Client) ListContainers(ctx context.Context) (out []host.Container, err error) {
	ctx, done := c.track(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	err = c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, tl := range page.Items {
			out = append(out, toContainer(tl))
		}
		return nil
	})
	if err != nil {
		return nil, upstream("list task lists", err)
	}
	return out, nil
}

// CreateContainer creates a task list.
func (c *Client) CreateContainer(ctx context.Context, name string) (_ *host.Container, err error) {
	ctx, done := c.track(ctx, instrumentation.OperationCreate)
	defer func() { done(err) }()

	created, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: name}).Context(ctx).Do()
	if err != nil {
		return nil, upstream("create task list", err)
	}
	container := toContainer(created)
	return &container, nil
}

// ListItems lists the tasks of a list, completed ones included, or of every
// list when containerID is empty.
func (c *Client) ListItems(ctx context.Context, containerID string) ([]host.Item, error) {
	ids := []string{containerID}
	if containerID == "" {
		lists, err := c.ListContainers(ctx)
		if err != nil {
			return nil, err
		}
		ids = ids[:0]
		for _, l := range lists {
			ids = append(ids, l.ID)
		}
	}

	var items []host.Item
	for _, id := range ids {
		listed, err := c.listTasks(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, listed...)
	}
	return items, nil
}

func (c *Client) listTasks(ctx context.Context, listID string) (out []host.Item, err error) {
	ctx, done := c.track(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	err = c.svc.Tasks.List(listID).ShowCompleted(true).ShowHidden(true).MaxResults(100).
		Pages(ctx, func(page *tasks.Tasks) error {
			for _, t := range page.Items {
				if t.Deleted {
					continue
				}
				out = append(out, toItem(t, listID, c.loc))
			}
			return nil
		})
	if err != nil {
		return nil, upstream("list tasks", err)
	}
	return out, nil
}

// CreateItem creates a task.
func (c *Client) CreateItem(ctx context.Context, containerID string, in host.ItemInput) (_ *host.Item, err error) {
	ctx, done := c.track(ctx, instrumentation.OperationCreate)
	defer func() { done(err) }()

	t := &tasks.Task{
		Title:  in.Title,
		Notes:  in.Content,
		Status: StatusNeedsAction,
	}
	if in.DueDate != nil {
		t.Due = formatDue(in.DueDate.In(c.loc))
	}

	created, err := c.svc.Tasks.Insert(containerID, t).Context(ctx).Do()
	if err != nil {
		return nil, upstream("create task", err)
	}
	item := toItem(created, containerID, c.loc)
	return &item, nil
}

// UpdateItem patches a task. Priority has no Google Tasks equivalent and is
// ignored.
func (c *Client) UpdateItem(ctx context.Context, containerID, id string, patch host.ItemPatch) (_ *host.Item, err error) {
	ctx, done := c.track(ctx, instrumentation.OperationUpdate)
	defer func() { done(err) }()

	t := &tasks.Task{}
	if patch.Title != nil {
		t.Title = *patch.Title
		t.ForceSendFields = append(t.ForceSendFields, "Title")
	}
	if patch.Content != nil {
		t.Notes = *patch.Content
		t.ForceSendFields = append(t.ForceSendFields, "Notes")
	}
	switch {
	case patch.ClearDueDate:
		t.NullFields = append(t.NullFields, "Due")
	case patch.DueDate != nil:
		t.Due = formatDue(patch.DueDate.In(c.loc))
	}
	if patch.Completed != nil {
		if *patch.Completed {
			t.Status = StatusCompleted
		} else {
			t.Status = StatusNeedsAction
			t.NullFields = append(t.NullFields, "Completed")
		}
	}

	updated, err := c.svc.Tasks.Patch(containerID, id, t).Context(ctx).Do()
	if err != nil {
		return nil, upstream("update task", err)
	}
	item := toItem(updated, containerID, c.loc)
	return &item, nil
}

// DeleteItem deletes a task.
func (c *Client) DeleteItem(ctx context.Context, containerID, id string) (err error) {
	ctx, done := c.track(ctx, instrumentation.OperationDelete)
	defer func() { done(err) }()

	if err := c.svc.Tasks.Delete(containerID, id).Context(ctx).Do(); err != nil {
		return upstream("delete task", err)
	}
	return nil
}

// MarkComplete completes a task.
func (c *Client) MarkComplete(ctx context.Context, containerID, id string) (err error) {
	ctx, done := c.track(ctx, instrumentation.OperationComplete)
	defer func() { done(err) }()

	_, err = c.svc.Tasks.Patch(containerID, id, &tasks.Task{Status: StatusCompleted}).Context(ctx).Do()
	if err != nil {
		return upstream("complete task", err)
	}
	return nil
}

// track starts a span for one API call. The returned func ends it and
// records the call's outcome.
func (c *Client) track(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceGoogleTasks, op)
	start := time.Now()
	return ctx, func(err error) {
		defer span.End()
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		}
		c.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceGoogleTasks, op, status, time.Since(start))
	}
}

func upstream(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &host.UpstreamError{Op: op, StatusCode: gerr.Code, Message: gerr.Message, Err: err}
	}
	return &host.UpstreamError{Op: op, Err: err}
}
