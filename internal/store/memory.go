package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/serroba/linkpulse/internal/shortener"
)

// DeleteHook is called for every link removed from the MemoryStore, after
// the store lock is released. It carries the link's dependent data away.
type DeleteHook func(ctx context.Context, linkID string) error

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu       sync.RWMutex
	links    map[string]*shortener.ShortLink // id -> link
	codes    map[shortener.Code]string       // code -> id
	onDelete []DeleteHook
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*shortener.ShortLink),
		codes: make(map[shortener.Code]string),
	}
}

// OnDelete registers a hook run for each deleted link.
func (m *MemoryStore) OnDelete(hook DeleteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onDelete = append(m.onDelete, hook)
}

func (m *MemoryStore) Save(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[link.Code]; ok {
		return shortener.ErrCodeTaken
	}

	m.links[link.ID] = clone(link)
	m.codes[link.Code] = link.ID

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return clone(m.links[id]), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return clone(link), nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*shortener.ShortLink, 0)

	for _, link := range m.links {
		if link.OwnerID == ownerID {
			out = append(out, clone(link))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.links[link.ID]
	if !ok {
		return shortener.ErrNotFound
	}

	if link.Code != current.Code {
		if _, taken := m.codes[link.Code]; taken {
			return shortener.ErrCodeTaken
		}

		delete(m.codes, current.Code)
		m.codes[link.Code] = link.ID
	}

	updated := clone(link)
	// The counter is owned by IncrementClicks.
	updated.Clicks = current.Clicks
	m.links[link.ID] = updated

	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()

	link, ok := m.links[id]
	if !ok {
		m.mu.Unlock()

		return shortener.ErrNotFound
	}

	m.remove(link)
	hooks := m.onDelete
	m.mu.Unlock()

	return runHooks(ctx, hooks, id)
}

func (m *MemoryStore) IncrementClicks(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Clicks++

	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) ([]*shortener.ShortLink, error) {
	m.mu.Lock()

	var removed []*shortener.ShortLink

	for _, link := range m.links {
		if link.IsExpired(now) {
			removed = append(removed, link)
		}
	}

	for _, link := range removed {
		m.remove(link)
	}

	hooks := m.onDelete
	m.mu.Unlock()

	var errs []error

	for _, link := range removed {
		errs = append(errs, runHooks(ctx, hooks, link.ID))
	}

	return removed, errors.Join(errs...)
}

// remove must be called with mu held.
func (m *MemoryStore) remove(link *shortener.ShortLink) {
	delete(m.codes, link.Code)
	delete(m.links, link.ID)
}

func runHooks(ctx context.Context, hooks []DeleteHook, id string) error {
	var errs []error

	for _, hook := range hooks {
		errs = append(errs, hook(ctx, id))
	}

	return errors.Join(errs...)
}

// clone returns a deep copy so callers never share state with the store.
func clone(link *shortener.ShortLink) *shortener.ShortLink {
	cp := *link

	if link.ExpiresAt != nil {
		t := *link.ExpiresAt
		cp.ExpiresAt = &t
	}

	cp.Tags = append([]string(nil), link.Tags...)
	cp.Campaigns = append([]shortener.UTMParams(nil), link.Campaigns...)

	return &cp
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
