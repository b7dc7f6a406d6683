// Package registry holds the events and resources the host lays out.
// Entries live until whoever added them removes them.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"calgrid/internal/model"
)

var (
	ErrDuplicate = errors.New("registry: already registered")
	ErrNotFound  = errors.New("registry: not found")
	ErrEmptyID   = errors.New("registry: empty id")
)

// Registry manages registered events and resources. It is safe for
// concurrent use; listings come back in registration order.
type Registry struct {
	mu sync.RWMutex

	events     map[string]model.Event
	eventOrder []string

	resources     map[string]model.Resource
	resourceOrder []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		events:    make(map[string]model.Event),
		resources: make(map[string]model.Resource),
	}
}

// AddEvent registers an event. IDs are unique.
func (r *Registry) AddEvent(ev model.Event) error {
	if ev.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[ev.ID]; exists {
		return fmt.Errorf("event %s: %w", ev.ID, ErrDuplicate)
	}
	r.events[ev.ID] = ev
	r.eventOrder = append(r.eventOrder, ev.ID)
	return nil
}

// RemoveEvent unregisters an event.
func (r *Registry) RemoveEvent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[id]; !exists {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	delete(r.events, id)
	r.eventOrder = slices.DeleteFunc(r.eventOrder, func(s string) bool { return s == id })
	return nil
}

// Event retrieves an event by ID.
func (r *Registry) Event(id string) (model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, exists := r.events[id]
	if !exists {
		return model.Event{}, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return ev, nil
}

// Events returns a snapshot of all registered events.
func (r *Registry) Events() []model.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Event, 0, len(r.eventOrder))
	for _, id := range r.eventOrder {
		out = append(out, r.events[id])
	}
	return out
}

// ReplaceSource swaps every event owned by sourceID for events in one step,
// so readers never see a half-synced feed. Events are re-tagged with
// sourceID. Duplicate IDs within events keep the first one; an ID already
// owned by another source is an error and nothing is changed.
func (r *Registry) ReplaceSource(sourceID string, events []model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incoming := make(map[string]model.Event, len(events))
	order := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" {
			return ErrEmptyID
		}
		if _, seen := incoming[ev.ID]; seen {
			continue
		}
		if old, exists := r.events[ev.ID]; exists && old.SourceID != sourceID {
			return fmt.Errorf("event %s owned by %q: %w", ev.ID, old.SourceID, ErrDuplicate)
		}
		ev.SourceID = sourceID
		incoming[ev.ID] = ev
		order = append(order, ev.ID)
	}

	r.eventOrder = slices.DeleteFunc(r.eventOrder, func(id string) bool {
		if r.events[id].SourceID != sourceID {
			return false
		}
		delete(r.events, id)
		return true
	})
	for _, id := range order {
		r.events[id] = incoming[id]
		r.eventOrder = append(r.eventOrder, id)
	}
	return nil
}

// RemoveSource unregisters every event owned by sourceID and reports how
// many were removed.
func (r *Registry) RemoveSource(sourceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.eventOrder)
	r.eventOrder = slices.DeleteFunc(r.eventOrder, func(id string) bool {
		if r.events[id].SourceID != sourceID {
			return false
		}
		delete(r.events, id)
		return true
	})
	return before - len(r.eventOrder)
}

// AddResource registers a resource.
func (r *Registry) AddResource(res model.Resource) error {
	if res.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[res.ID]; exists {
		return fmt.Errorf("resource %s: %w", res.ID, ErrDuplicate)
	}
	r.resources[res.ID] = res
	r.resourceOrder = append(r.resourceOrder, res.ID)
	return nil
}

// RemoveResource unregisters a resource. Events pointing at it are left alone.
func (r *Registry) RemoveResource(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[id]; !exists {
		return fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}
	delete(r.resources, id)
	r.resourceOrder = slices.DeleteFunc(r.resourceOrder, func(s string) bool { return s == id })
	return nil
}

// Resource retrieves a resource by ID.
func (r *Registry) Resource(id string) (model.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, exists := r.resources[id]
	if !exists {
		return model.Resource{}, fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}
	return res, nil
}

// Resources returns a snapshot of all registered resources.
func (r *Registry) Resources() []model.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Resource, 0, len(r.resourceOrder))
	for _, id := range r.resourceOrder {
		out = append(out, r.resources[id])
	}
	return out
}
