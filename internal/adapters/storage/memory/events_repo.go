package memory

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"

	"event-reports/internal/domain/events"
)

var (
	ErrNotFound = errors.New("not found")
)

// eventRepo es append-only: el orden del slice es el orden de almacenamiento.
type eventRepo struct {
	mu    sync.RWMutex
	items []events.Event
	ids   map[string]struct{}
}

func NewEventRepo() events.Repository {
	return &eventRepo{
		ids: make(map[string]struct{}),
	}
}

func (r *eventRepo) Insert(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id required")
	}
	if _, exists := r.ids[e.ID]; exists {
		return errors.New("event already exists")
	}

	r.ids[e.ID] = struct{}{}
	r.items = append(r.items, e)
	return nil
}

func (r *eventRepo) Find(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	out := make([]events.Event, 0)
	for e, err := range r.Stream(ctx, filter) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *eventRepo) Stream(ctx context.Context, filter events.Filter) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		// Snapshot del prefijo actual: los inserts posteriores solo agregan al final.
		r.mu.RLock()
		items := r.items[:len(r.items):len(r.items)]
		r.mu.RUnlock()

		n := 0
		for _, e := range items {
			if err := ctx.Err(); err != nil {
				yield(events.Event{}, err)
				return
			}
			if !filter.Matches(e) {
				continue
			}
			if filter.Limit > 0 && n >= filter.Limit {
				return
			}
			n++
			if !yield(e, nil) {
				return
			}
		}
	}
}
