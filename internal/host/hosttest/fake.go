// Package hosttest provides an in-memory host.Source for tests.
package hosttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/teemow/didagoals/internal/host"
)

// Source is an in-memory host.Source. The zero value is not usable; call New.
type Source struct {
	mu         sync.Mutex
	containers []host.Container
	items      map[string]*host.Item
	order      []string
	nextID     int

	// Now stamps created and modified times. Defaults to time.Now.
	Now func() time.Time

	// Err, when set, is returned by every operation.
	Err error
	// ItemsErr, when set, is returned by ListItems only.
	ItemsErr error
	// OpenOnly makes ListItems skip completed items.
	OpenOnly bool

	// Calls counts invocations per operation name.
	Calls map[string]int
}

// New returns an empty fake source.
func New() *Source {
	return &Source{
		items: make(map[string]*host.Item),
		Now:   time.Now,
		Calls: make(map[string]int),
	}
}

// AddContainer seeds a container and returns it.
func (s *Source) AddContainer(id, name string, closed bool) host.Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := host.Container{ID: id, Name: name, Closed: closed}
	s.containers = append(s.containers, c)
	return c
}

// AddItem seeds an item as-is.
func (s *Source) AddItem(item host.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := item
	s.items[item.ID] = &cp
	s.order = append(s.order, item.ID)
}

// Item returns a copy of the stored item.
func (s *Source) Item(id string) (host.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return host.Item{}, false
	}
	return *it, true
}

func (s *Source) record(op string) error {
	s.Calls[op]++
	return s.Err
}

func (s *Source) ListContainers(ctx context.Context) ([]host.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListContainers"); err != nil {
		return nil, err
	}
	out := make([]host.Container, len(s.containers))
	copy(out, s.containers)
	return out, nil
}

func (s *Source) CreateContainer(ctx context.Context, name string) (*host.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CreateContainer"); err != nil {
		return nil, err
	}
	s.nextID++
	c := host.Container{ID: fmt.Sprintf("container-%d", s.nextID), Name: name}
	s.containers = append(s.containers, c)
	return &c, nil
}

func (s *Source) ListItems(ctx context.Context, containerID string) ([]host.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListItems"); err != nil {
		return nil, err
	}
	if s.ItemsErr != nil {
		return nil, s.ItemsErr
	}
	var out []host.Item
	for _, id := range s.order {
		it, ok := s.items[id]
		if !ok {
			continue
		}
		if s.OpenOnly && it.Completed {
			continue
		}
		if containerID == "" || it.ContainerID == containerID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (s *Source) CreateItem(ctx context.Context, containerID string, in host.ItemInput) (*host.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CreateItem"); err != nil {
		return nil, err
	}
	if !s.hasContainer(containerID) {
		return nil, &host.UpstreamError{Op: "create item", StatusCode: 404, Message: "container not found"}
	}
	s.nextID++
	now := s.Now()
	it := &host.Item{
		ID:          fmt.Sprintf("item-%d", s.nextID),
		ContainerID: containerID,
		Title:       in.Title,
		Content:     in.Content,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CreatedAt:   &now,
		ModifiedAt:  &now,
	}
	s.items[it.ID] = it
	s.order = append(s.order, it.ID)
	cp := *it
	return &cp, nil
}

func (s *Source) UpdateItem(ctx context.Context, containerID, id string, patch host.ItemPatch) (*host.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("UpdateItem"); err != nil {
		return nil, err
	}
	it, ok := s.items[id]
	if !ok {
		return nil, &host.UpstreamError{Op: "update item", StatusCode: 404, Message: "task not found"}
	}
	if patch.Title != nil {
		it.Title = *patch.Title
	}
	if patch.Content != nil {
		it.Content = *patch.Content
	}
	if patch.DueDate != nil {
		d := *patch.DueDate
		it.DueDate = &d
	}
	if patch.ClearDueDate {
		it.DueDate = nil
	}
	if patch.Completed != nil {
		it.Completed = *patch.Completed
		if !it.Completed {
			it.CompletedAt = nil
		}
	}
	if patch.Priority != nil {
		it.Priority = *patch.Priority
	}
	now := s.Now()
	it.ModifiedAt = &now
	cp := *it
	return &cp, nil
}

func (s *Source) DeleteItem(ctx context.Context, containerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("DeleteItem"); err != nil {
		return err
	}
	if _, ok := s.items[id]; !ok {
		return &host.UpstreamError{Op: "delete item", StatusCode: 404, Message: "task not found"}
	}
	delete(s.items, id)
	return nil
}

func (s *Source) MarkComplete(ctx context.Context, containerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("MarkComplete"); err != nil {
		return err
	}
	it, ok := s.items[id]
	if !ok {
		return &host.UpstreamError{Op: "complete item", StatusCode: 404, Message: "task not found"}
	}
	now := s.Now()
	it.Completed = true
	it.CompletedAt = &now
	it.ModifiedAt = &now
	return nil
}

// ContainerNames lists container names, sorted.
func (s *Source) ContainerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.containers))
	for _, c := range s.containers {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

func (s *Source) hasContainer(id string) bool {
	for _, c := range s.containers {
		if c.ID == id {
			return true
		}
	}
	return false
}

var _ host.Source = (*Source)(nil)
