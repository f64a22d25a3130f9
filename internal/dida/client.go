package dida

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
)

// DefaultBaseURL is the Dida365 OpenAPI root.
const DefaultBaseURL = "https://api.dida365.com/open/v1"

// Invalidator drops a cached access token so the next request fetches a new
// one. auth.CachingSource implements it.
type Invalidator interface {
	Invalidate()
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithInvalidator enables the single retry after a 401.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Client) { c.invalidator = inv }
}

// WithMetrics records every API call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLocation sets the time zone sent along with due dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

// Client talks to the Dida365 OpenAPI.
type Client struct {
	http        *http.Client
	baseURL     string
	invalidator Invalidator
	metrics     *instrumentation.Metrics
	logger      logging.Logger
	loc         *time.Location
}

var _ host.Source = (*Client)(nil)

// NewClient returns a client sending authorized requests through httpClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		baseURL: DefaultBaseURL,
		metrics: &instrumentation.Metrics{},
		logger:  logging.DefaultLogger(),
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListContainers lists all projects.
func (c *Client) ListContainers(ctx context.Context) ([]host.Container, error) {
	var projects []project
	if err := c.do(ctx, "list projects", instrumentation.OperationList, http.MethodGet, "/project", nil, &projects); err != nil {
		return nil, err
	}
	out := make([]host.Container, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.container())
	}
	return out, nil
}

// CreateContainer creates a project.
func (c *Client) CreateContainer(ctx context.Context, name string) (*host.Container, error) {
	var p project
	body := map[string]any{"name": name}
	if err := c.do(ctx, "create project", instrumentation.OperationCreate, http.MethodPost, "/project", body, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = name
	}
	container := p.container()
	return &container, nil
}

// ListItems lists the tasks of a project, or of every project when
// containerID is empty. The project data endpoint only returns open tasks, so
// completed ones are fetched separately.
func (c *Client) ListItems(ctx context.Context, containerID string) ([]host.Item, error) {
	ids := []string{containerID}
	if containerID == "" {
		containers, err := c.ListContainers(ctx)
		if err != nil {
			return nil, err
		}
		ids = ids[:0]
		for _, p := range containers {
			ids = append(ids, p.ID)
		}
	}

	var items []host.Item
	seen := make(map[string]bool)
	add := func(t task, projectID string) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		if t.ProjectID == "" {
			t.ProjectID = projectID
		}
		items = append(items, t.item())
	}

	for _, id := range ids {
		var data projectData
		path := "/project/" + url.PathEscape(id) + "/data"
		if err := c.do(ctx, "list tasks", instrumentation.OperationList, http.MethodGet, path, nil, &data); err != nil {
			return nil, err
		}
		for _, t := range data.Tasks {
			add(t, id)
		}
	}
	if len(ids) == 0 {
		return items, nil
	}

	completed, err := c.listCompleted(ctx, ids)
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	for _, t := range completed {
		if t.ProjectID != "" && !requested[t.ProjectID] {
			continue
		}
		add(t, ids[0])
	}
	return items, nil
}

// listCompleted returns the completed tasks of the given projects. Servers
// without the endpoint answer 404, which yields no tasks.
func (c *Client) listCompleted(ctx context.Context, projectIDs []string) ([]task, error) {
	var tasks []task
	body := map[string]any{"projectIds": projectIDs}
	err := c.do(ctx, "list completed tasks", instrumentation.OperationList, http.MethodPost, "/task/completed", body, &tasks)
	if host.IsNotFound(err) {
		c.logger.Debug("completed task listing not supported", logging.KeyOperation, "list completed tasks")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Status = statusCompleted
	}
	return tasks, nil
}

// GetItem fetches a single task.
func (c *Client) GetItem(ctx context.Context, containerID, id string) (*host.Item, error) {
	var t task
	path := "/project/" + url.PathEscape(containerID) + "/task/" + url.PathEscape(id)
	if err := c.do(ctx, "get task", instrumentation.OperationList, http.MethodGet, path, nil, &t); err != nil {
		return nil, err
	}
	item := t.item()
	return &item, nil
}

// CreateItem creates a task in a project. Due dates are sent as all-day
// dates in the client's time zone.
func (c *Client) CreateItem(ctx context.Context, containerID string, in host.ItemInput) (*host.Item, error) {
	body := map[string]any{
		"projectId": containerID,
		"title":     in.Title,
		"content":   in.Content,
		"priority":  in.Priority,
	}
	if in.DueDate != nil {
		c.setDueDate(body, *in.DueDate)
	}

	var t task
	if err := c.do(ctx, "create task", instrumentation.OperationCreate, http.MethodPost, "/task", body, &t); err != nil {
		return nil, err
	}
	if t.ProjectID == "" {
		t.ProjectID = containerID
	}
	item := t.item()
	return &item, nil
}

// UpdateItem applies patch to a task. Completing a task goes through the
// complete endpoint; reopening sets the status back to open.
func (c *Client) UpdateItem(ctx context.Context, containerID, id string, patch host.ItemPatch) (*host.Item, error) {
	body := map[string]any{
		"id":        id,
		"projectId": containerID,
	}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Priority != nil {
		body["priority"] = *patch.Priority
	}
	switch {
	case patch.ClearDueDate:
		body["dueDate"] = nil
	case patch.DueDate != nil:
		c.setDueDate(body, *patch.DueDate)
	}
	if patch.Completed != nil && !*patch.Completed {
		body["status"] = statusOpen
	}

	var raw json.RawMessage
	path := "/task/" + url.PathEscape(id)
	if err := c.do(ctx, "update task", instrumentation.OperationUpdate, http.MethodPost, path, body, &raw); err != nil {
		return nil, err
	}

	if patch.Completed != nil && *patch.Completed {
		if err := c.MarkComplete(ctx, containerID, id); err != nil {
			return nil, err
		}
		return c.GetItem(ctx, containerID, id)
	}

	// Some deployments answer with a bare boolean instead of the task.
	var t task
	if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" {
		return c.GetItem(ctx, containerID, id)
	}
	if t.ProjectID == "" {
		t.ProjectID = containerID
	}
	item := t.item()
	return &item, nil
}

// DeleteItem deletes a task.
func (c *Client) DeleteItem(ctx context.Context, containerID, id string) error {
	path := "/project/" + url.PathEscape(containerID) + "/task/" + url.PathEscape(id)
	return c.do(ctx, "delete task", instrumentation.OperationDelete, http.MethodDelete, path, nil, nil)
}

// MarkComplete completes a task.
func (c *Client) MarkComplete(ctx context.Context, containerID, id string) error {
	path := "/project/" + url.PathEscape(containerID) + "/task/" + url.PathEscape(id) + "/complete"
	return c.do(ctx, "complete task", instrumentation.OperationComplete, http.MethodPost, path, struct{}{}, nil)
}

func (c *Client) setDueDate(body map[string]any, due time.Time) {
	body["dueDate"] = formatTime(due)
	body["isAllDay"] = true
	body["timeZone"] = c.loc.String()
}

// do sends one API request and decodes the JSON response into out. A 401 is
// retried once after invalidating the token.
func (c *Client) do(ctx context.Context, op, metricOp, method, path string, body, out any) (err error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ServiceDida, metricOp)
	defer span.End()

	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		}
		c.metrics.RecordUpstreamOperation(ctx, instrumentation.ServiceDida, metricOp, status, time.Since(start))
	}()

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
	}

	resp, data, err := c.send(ctx, method, path, payload)
	if err != nil {
		return &host.UpstreamError{Op: op, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized && c.invalidator != nil {
		c.logger.Warn("access token rejected, retrying with a refreshed token", logging.KeyOperation, op)
		c.invalidator.Invalidate()
		resp, data, err = c.send(ctx, method, path, payload)
		if err != nil {
			return &host.UpstreamError{Op: op, Err: err}
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return upstreamError(op, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &host.UpstreamError{Op: op, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

func upstreamError(op string, status int, body []byte) error {
	var apiErr apiError
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorMessage != "" {
		msg = apiErr.ErrorMessage
	}
	return &host.UpstreamError{Op: op, StatusCode: status, Message: msg}
}
