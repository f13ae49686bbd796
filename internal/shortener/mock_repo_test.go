package shortener_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/linkpulse/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepo is a minimal Repository double keyed by id with a code index.
type mockRepo struct {
	mu      sync.Mutex
	links   map[string]*shortener.ShortLink
	saveErr error
	saves   int

	// takenCodes simulates codes already held by other links.
	takenCodes map[shortener.Code]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		links:      make(map[string]*shortener.ShortLink),
		takenCodes: make(map[shortener.Code]bool),
	}
}

func (m *mockRepo) Save(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++

	if m.saveErr != nil {
		return m.saveErr
	}

	if m.takenCodes[link.Code] {
		return shortener.ErrCodeTaken
	}

	cp := *link
	m.links[link.ID] = &cp
	m.takenCodes[link.Code] = true

	return nil
}

func (m *mockRepo) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.Code == code {
			cp := *l

			return &cp, nil
		}
	}

	return nil, shortener.ErrNotFound
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*shortener.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	cp := *l

	return &cp, nil
}

func (m *mockRepo) ListByOwner(_ context.Context, ownerID string) ([]*shortener.ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*shortener.ShortLink

	for _, l := range m.links {
		if l.OwnerID == ownerID {
			cp := *l
			out = append(out, &cp)
		}
	}

	return out, nil
}

func (m *mockRepo) Update(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.links[link.ID]
	if !ok {
		return shortener.ErrNotFound
	}

	if old.Code != link.Code {
		if m.takenCodes[link.Code] {
			return shortener.ErrCodeTaken
		}

		delete(m.takenCodes, old.Code)
		m.takenCodes[link.Code] = true
	}

	cp := *link
	m.links[link.ID] = &cp

	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return shortener.ErrNotFound
	}

	delete(m.takenCodes, l.Code)
	delete(m.links, id)

	return nil
}

func (m *mockRepo) IncrementClicks(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.links[id]
	if !ok {
		return shortener.ErrNotFound
	}

	l.Clicks++

	return nil
}

func (m *mockRepo) DeleteExpired(_ context.Context, _ time.Time) ([]*shortener.ShortLink, error) {
	return nil, nil
}
