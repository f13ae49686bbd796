package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/serroba/linkpulse/internal/analytics"
	"github.com/serroba/linkpulse/internal/handlers"
	"github.com/serroba/linkpulse/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var analyticsAll = analytics.DateRange{}

// brokenRepo fails every link read with an infrastructure error.
type brokenRepo struct {
	shortener.Repository
}

func (brokenRepo) GetByCode(_ context.Context, _ shortener.Code) (*shortener.ShortLink, error) {
	return nil, errMock
}

func (brokenRepo) GetByID(_ context.Context, _ string) (*shortener.ShortLink, error) {
	return nil, errMock
}

type brokenClicks struct{}

func (brokenClicks) Record(_ context.Context, _ *analytics.ClickEvent) error { return errMock }

func (brokenClicks) ListByLink(_ context.Context, _ string, _ analytics.DateRange) ([]analytics.ClickEvent, error) {
	return nil, errMock
}

func (f *fixture) visit(t *testing.T, code string, meta handlers.RequestMeta) {
	t.Helper()

	ctx := handlers.ContextWithRequestMeta(context.Background(), meta)

	_, err := f.redirectH.Redirect(ctx, &handlers.RedirectRequest{Code: code})
	require.NoError(t, err)
}

func TestGetAnalytics(t *testing.T) {
	f := newFixture(t)
	link := f.create(t, shortener.CreateInput{CustomCode: "stats"})

	f.visit(t, "stats", handlers.RequestMeta{Country: "US", City: "Austin", Browser: "Chrome"})
	f.visit(t, "stats", handlers.RequestMeta{Country: "US", City: "Denver", Browser: "Chrome"})
	f.visit(t, "stats", handlers.RequestMeta{Country: "GB", City: "London", Browser: "Firefox"})

	t.Run("full detail", func(t *testing.T) {
		resp, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			Detail:  "full",
		})

		require.NoError(t, err)
		assert.Equal(t, link.ID, resp.Body.LinkID)
		assert.Equal(t, int64(3), resp.Body.Clicks)
		assert.Equal(t, 3, resp.Body.TotalClicks)
		assert.Equal(t, map[string]int{"US": 2, "GB": 1}, resp.Body.ClicksByCountry)
		assert.Equal(t, []analytics.Ranked{
			{Key: "US", Count: 2, Percentage: 66.7},
			{Key: "GB", Count: 1, Percentage: 33.3},
		}, resp.Body.Charts[analytics.DimCountry])
		assert.Len(t, resp.Body.Tables[analytics.DimCity], 3)
		assert.NotContains(t, resp.Body.Charts, analytics.DimDate)
	})

	t.Run("detail level ignores case", func(t *testing.T) {
		resp, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			Detail:  "FULL",
		})

		require.NoError(t, err)
		assert.Equal(t, analytics.DetailFull, resp.Body.Level)
		assert.NotEmpty(t, resp.Body.Charts[analytics.DimBrowser])
	})

	t.Run("basic detail omits breakdowns", func(t *testing.T) {
		resp, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, analytics.DetailBasic, resp.Body.Level)
		assert.Equal(t, 3, resp.Body.TotalClicks)
		assert.Empty(t, resp.Body.Charts[analytics.DimBrowser])
	})

	t.Run("range outside history is empty", func(t *testing.T) {
		resp, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			From:    "2001-01-01",
			To:      "2001-01-31",
		})

		require.NoError(t, err)
		assert.Equal(t, 0, resp.Body.TotalClicks)
		assert.Equal(t, int64(3), resp.Body.Clicks, "lifetime counter ignores the range")
	})

	t.Run("range covering today", func(t *testing.T) {
		today := time.Now().UTC().Format(time.DateOnly)

		resp, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			From:    today,
			To:      today,
		})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Body.TotalClicks)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			From:    "03/01/2024",
		})

		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: testOwner,
			ID:      link.ID,
			From:    "2024-03-10",
			To:      "2024-03-01",
		})

		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})

	t.Run("other owner gets not found", func(t *testing.T) {
		_, err := f.statsH.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{
			OwnerID: otherOwner,
			ID:      link.ID,
		})

		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})
}

func TestGetAnalytics_Unavailable(t *testing.T) {
	t.Run("link read fails", func(t *testing.T) {
		gen, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		svc := shortener.NewService(brokenRepo{}, gen, zap.NewNop())
		h := handlers.NewAnalyticsHandler(svc, brokenClicks{}, zap.NewNop())

		_, err = h.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{OwnerID: testOwner, ID: "x"})

		assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	})

	t.Run("click read fails", func(t *testing.T) {
		f := newFixture(t)
		link := f.create(t, shortener.CreateInput{})
		h := handlers.NewAnalyticsHandler(f.service, brokenClicks{}, zap.NewNop())

		resp, err := h.GetAnalytics(context.Background(), &handlers.AnalyticsRequest{OwnerID: testOwner, ID: link.ID})

		assert.Nil(t, resp)
		assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	})
}

func TestListClicks(t *testing.T) {
	f := newFixture(t)
	link := f.create(t, shortener.CreateInput{CustomCode: "raw"})

	t.Run("no clicks yields empty list", func(t *testing.T) {
		resp, err := f.statsH.ListClicks(context.Background(), &handlers.AnalyticsRequest{OwnerID: testOwner, ID: link.ID})

		require.NoError(t, err)
		assert.NotNil(t, resp.Body.Clicks)
		assert.Empty(t, resp.Body.Clicks)
	})

	t.Run("lists recorded events", func(t *testing.T) {
		f.visit(t, "raw", handlers.RequestMeta{Referrer: "https://news.example"})

		resp, err := f.statsH.ListClicks(context.Background(), &handlers.AnalyticsRequest{OwnerID: testOwner, ID: link.ID})

		require.NoError(t, err)
		require.Len(t, resp.Body.Clicks, 1)
		assert.Equal(t, "https://news.example", resp.Body.Clicks[0].Referrer)
		assert.Equal(t, link.ID, resp.Body.Clicks[0].ShortLinkID)
	})
}
