package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/serroba/linkpulse/internal/handlers"
	"github.com/serroba/linkpulse/internal/resolver"
	"github.com/serroba/linkpulse/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLimiter struct {
	blocked bool
	err     error
}

func (s stubLimiter) Blocked(_ context.Context, _ string) (bool, error) {
	return s.blocked, s.err
}

func (s stubLimiter) RecordFailure(_ context.Context, _ string) error {
	return s.err
}

func unlock(code, password string) *handlers.UnlockRequest {
	req := &handlers.UnlockRequest{Code: code}
	req.Body.Password = password

	return req
}

func TestRedirect(t *testing.T) {
	t.Run("redirects and records the click", func(t *testing.T) {
		f := newFixture(t)
		link := f.create(t, shortener.CreateInput{CustomCode: "go"})

		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			ClientIP: "203.0.113.7",
			Country:  "US",
			Device:   "Desktop",
		})

		resp, err := f.redirectH.Redirect(ctx, &handlers.RedirectRequest{Code: "go"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, testURL, resp.Location)
		assert.Equal(t, "no-store", resp.CacheControl)

		events, err := f.clicks.ListByLink(context.Background(), link.ID, analyticsAll)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "203.0.113.7", events[0].IPAddress)
		assert.Equal(t, "US", events[0].Country)
	})

	t.Run("forwards inbound utm parameters", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "utm"})

		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			UTM: shortener.UTMParams{Source: "twitter"},
		})

		resp, err := f.redirectH.Redirect(ctx, &handlers.RedirectRequest{Code: "utm"})

		require.NoError(t, err)
		assert.Equal(t, testURL+"?utm_source=twitter", resp.Location)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.redirectH.Redirect(context.Background(), &handlers.RedirectRequest{Code: "nope"})

		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})

	t.Run("expired without fallback", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "old", ExpiresAt: ptr(time.Now().Add(-time.Hour))})

		_, err := f.redirectH.Redirect(context.Background(), &handlers.RedirectRequest{Code: "old"})

		assert.Equal(t, http.StatusGone, statusOf(t, err))
	})

	t.Run("expired with fallback", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{
			CustomCode:    "old",
			ExpiresAt:     ptr(time.Now().Add(-time.Hour)),
			ExpirationURL: "https://example.com/ended",
		})

		resp, err := f.redirectH.Redirect(context.Background(), &handlers.RedirectRequest{Code: "old"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "https://example.com/ended", resp.Location)
	})

	t.Run("protected link asks for password", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "vault", Password: "s3cret"})

		_, err := f.redirectH.Redirect(context.Background(), &handlers.RedirectRequest{Code: "vault"})

		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("infrastructure failure", func(t *testing.T) {
		engine := resolver.NewEngine(brokenRepo{}, nil, zap.NewNop())
		h := handlers.NewRedirectHandler(engine, stubLimiter{}, zap.NewNop())

		_, err := h.Redirect(context.Background(), &handlers.RedirectRequest{Code: "abc123"})

		assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	})
}

func TestUnlock(t *testing.T) {
	t.Run("correct password redirects", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "vault", Password: "s3cret"})

		resp, err := f.redirectH.Unlock(context.Background(), unlock("vault", "s3cret"))

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, testURL, resp.Location)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "vault", Password: "s3cret"})

		_, err := f.redirectH.Unlock(context.Background(), unlock("vault", "guess"))

		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("wrong passwords are capped per code", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "vault", Password: "s3cret"})
		f.create(t, shortener.CreateInput{CustomCode: "other", Password: "s3cret"})

		for range 3 {
			_, err := f.redirectH.Unlock(context.Background(), unlock("vault", "guess"))
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		}

		_, err := f.redirectH.Unlock(context.Background(), unlock("vault", "s3cret"))
		assert.Equal(t, http.StatusTooManyRequests, statusOf(t, err))

		resp, err := f.redirectH.Unlock(context.Background(), unlock("other", "s3cret"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
	})

	t.Run("unknown codes and correct passwords do not use the budget", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, shortener.CreateInput{CustomCode: "vault", Password: "s3cret"})

		for range 5 {
			_, err := f.redirectH.Unlock(context.Background(), unlock("nope", "guess"))
			assert.Equal(t, http.StatusNotFound, statusOf(t, err))

			resp, err := f.redirectH.Unlock(context.Background(), unlock("vault", "s3cret"))
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, resp.Status)
		}

		_, err := f.redirectH.Unlock(context.Background(), unlock("vault", "guess"))
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("limiter failure", func(t *testing.T) {
		f := newFixture(t)
		engine := resolver.NewEngine(f.links, nil, zap.NewNop())
		h := handlers.NewRedirectHandler(engine, stubLimiter{err: errors.New("redis down")}, zap.NewNop())

		_, err := h.Unlock(context.Background(), unlock("vault", "s3cret"))

		assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	})
}
