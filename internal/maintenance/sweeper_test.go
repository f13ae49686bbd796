package maintenance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/linkpulse/internal/analytics"
	clickstore "github.com/serroba/linkpulse/internal/analytics/store"
	"github.com/serroba/linkpulse/internal/maintenance"
	"github.com/serroba/linkpulse/internal/shortener"
	"github.com/serroba/linkpulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingExpirer struct{}

func (failingExpirer) DeleteExpired(_ context.Context, _ time.Time) ([]*shortener.ShortLink, error) {
	return nil, errors.New("db down")
}

type countingPruner struct {
	calls int
}

func (p *countingPruner) Sweep() int {
	p.calls++

	return 1
}

func save(t *testing.T, s *store.MemoryStore, id string, expiresAt *time.Time) {
	t.Helper()

	require.NoError(t, s.Save(context.Background(), &shortener.ShortLink{
		ID:          id,
		Code:        shortener.Code(id),
		OwnerID:     "owner-1",
		OriginalURL: "https://example.com",
		ExpiresAt:   expiresAt,
	}))
}

func TestScheduler_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	longAgo := now.Add(-48 * time.Hour)
	recently := now.Add(-time.Hour)

	links := store.NewMemoryStore()
	clicks := clickstore.NewMemoryStore()
	links.OnDelete(clicks.DeleteByLink)

	save(t, links, "stale", &longAgo)
	save(t, links, "grace", &recently)
	save(t, links, "forever", nil)

	require.NoError(t, clicks.Record(ctx, &analytics.ClickEvent{ID: "c1", ShortLinkID: "stale", Timestamp: longAgo}))

	pruner := &countingPruner{}
	s := maintenance.NewScheduler(maintenance.DefaultSchedule, 24*time.Hour, links, zap.NewNop(), pruner)

	s.Run(ctx)

	_, err := links.GetByID(ctx, "stale")
	require.ErrorIs(t, err, shortener.ErrNotFound)

	for _, id := range []string{"grace", "forever"} {
		_, err := links.GetByID(ctx, id)
		assert.NoError(t, err, id)
	}

	events, err := clicks.ListByLink(ctx, "stale", analytics.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, events, "clicks of swept links are removed")
	assert.Equal(t, 1, pruner.calls)
}

func TestScheduler_RunSurvivesStoreError(t *testing.T) {
	pruner := &countingPruner{}
	s := maintenance.NewScheduler(maintenance.DefaultSchedule, 0, failingExpirer{}, zap.NewNop(), pruner)

	assert.NotPanics(t, func() { s.Run(context.Background()) })
	assert.Equal(t, 1, pruner.calls, "pruners still run")
}

func TestScheduler_Start(t *testing.T) {
	t.Run("rejects invalid schedule", func(t *testing.T) {
		s := maintenance.NewScheduler("every tuesday", 0, store.NewMemoryStore(), zap.NewNop())

		assert.Error(t, s.Start(context.Background()))
	})

	t.Run("starts and stops", func(t *testing.T) {
		s := maintenance.NewScheduler(maintenance.DefaultSchedule, 0, store.NewMemoryStore(), zap.NewNop())

		require.NoError(t, s.Start(context.Background()))
		assert.NoError(t, s.Shutdown())
	})
}
