package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/linkpulse/internal/analytics"
)

// MemoryStore is an in-memory implementation of analytics.Store.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]analytics.ClickEvent // shortLinkID -> events
	ids    map[string]string                 // event id -> shortLinkID
}

// NewMemoryStore creates a new in-memory click store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]analytics.ClickEvent),
		ids:    make(map[string]string),
	}
}

func (m *MemoryStore) Record(_ context.Context, event *analytics.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[event.ID]; ok {
		return nil
	}

	m.ids[event.ID] = event.ShortLinkID
	m.events[event.ShortLinkID] = append(m.events[event.ShortLinkID], *event)

	return nil
}

func (m *MemoryStore) ListByLink(
	_ context.Context, shortLinkID string, r analytics.DateRange,
) ([]analytics.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]analytics.ClickEvent, 0, len(m.events[shortLinkID]))

	for _, e := range m.events[shortLinkID] {
		if r.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

// DeleteByLink drops every event of a link. The memory link store calls it
// when a link is removed.
func (m *MemoryStore) DeleteByLink(_ context.Context, shortLinkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events[shortLinkID] {
		delete(m.ids, e.ID)
	}

	delete(m.events, shortLinkID)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*MemoryStore)(nil)
