package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/linkpulse/internal/analytics"
	clickstore "github.com/serroba/linkpulse/internal/analytics/store"
	"github.com/serroba/linkpulse/internal/handlers"
	"github.com/serroba/linkpulse/internal/ratelimit"
	"github.com/serroba/linkpulse/internal/resolver"
	"github.com/serroba/linkpulse/internal/shortener"
	"github.com/serroba/linkpulse/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errMock = errors.New("mock error")

const (
	testBaseURL = "http://localhost:8888"
	testOwner   = "owner-1"
	otherOwner  = "owner-2"
	testURL     = "https://example.com/landing"
)

type fixture struct {
	links     *store.MemoryStore
	clicks    *clickstore.MemoryStore
	service   *shortener.Service
	linkH     *handlers.LinkHandler
	redirectH *handlers.RedirectHandler
	statsH    *handlers.AnalyticsHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	links := store.NewMemoryStore()
	clicks := clickstore.NewMemoryStore()
	links.OnDelete(clicks.DeleteByLink)

	gen, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	logger := zap.NewNop()
	service := shortener.NewService(links, gen, logger)
	engine := resolver.NewEngine(links, analytics.NewStoreRecorder(clicks), logger)
	attempts := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), "unlock", 3, time.Minute)

	return &fixture{
		links:     links,
		clicks:    clicks,
		service:   service,
		linkH:     handlers.NewLinkHandler(service, testBaseURL, logger),
		redirectH: handlers.NewRedirectHandler(engine, attempts, logger),
		statsH:    handlers.NewAnalyticsHandler(service, clicks, logger),
	}
}

func (f *fixture) create(t *testing.T, in shortener.CreateInput) *shortener.ShortLink {
	t.Helper()

	if in.OwnerID == "" {
		in.OwnerID = testOwner
	}

	if in.URL == "" {
		in.URL = testURL
	}

	link, err := f.service.Create(context.Background(), in)
	require.NoError(t, err)

	return link
}

func ptr[T any](v T) *T { return &v }
