package memory

import (
	"context"
	"sync"

	audit "canopy/pkg/platform/audit"
)

// InMemoryStore keeps events in append order and tracks which have been relayed.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    []audit.Event
	published int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.published = 0
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListRecent returns up to limit events, most recent first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Relay passes the oldest unpublished events to fn. Events stay pending if fn fails.
func (s *InMemoryStore) Relay(ctx context.Context, limit int, fn func(ctx context.Context, entries []audit.OutboxEntry) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := len(s.events)
	if limit > 0 && s.published+limit < end {
		end = s.published + limit
	}
	if end == s.published {
		return 0, nil
	}

	entries := make([]audit.OutboxEntry, 0, end-s.published)
	for _, e := range s.events[s.published:end] {
		payload, err := audit.EncodePayload(e)
		if err != nil {
			return 0, err
		}
		entries = append(entries, audit.OutboxEntry{Event: e, Payload: payload})
	}
	if err := fn(ctx, entries); err != nil {
		return 0, err
	}
	s.published = end
	return len(entries), nil
}
