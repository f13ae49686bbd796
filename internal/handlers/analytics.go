package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkpulse/internal/analytics"
	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

const msgAnalyticsUnavailable = "analytics not available"

// AnalyticsHandler serves click analytics of a link to its owner.
type AnalyticsHandler struct {
	links  *shortener.Service
	clicks analytics.Store
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(links *shortener.Service, clicks analytics.Store, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		links:  links,
		clicks: clicks,
		logger: logger,
	}
}

func (h *AnalyticsHandler) GetAnalytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	link, events, err := h.load(ctx, req)
	if err != nil {
		return nil, err
	}

	snap := analytics.Aggregate(link, events, analytics.ParseDetailLevel(req.Detail))

	body := AnalyticsBody{
		LinkID:   link.ID,
		Code:     string(link.Code),
		Clicks:   link.Clicks,
		Snapshot: *snap,
		Charts:   make(map[analytics.Dimension][]analytics.Ranked),
		Tables:   make(map[analytics.Dimension][]analytics.Ranked),
	}

	for _, d := range analytics.Dimensions {
		if d == analytics.DimDate {
			continue
		}

		counts := snap.Dimension(d)
		body.Charts[d] = analytics.TopN(counts, analytics.ChartTopN)
		body.Tables[d] = analytics.TopN(counts, analytics.TableTopN)
	}

	return &AnalyticsResponse{Body: body}, nil
}

func (h *AnalyticsHandler) ListClicks(ctx context.Context, req *AnalyticsRequest) (*ClicksResponse, error) {
	_, events, err := h.load(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &ClicksResponse{}
	resp.Body.Clicks = events

	return resp, nil
}

// load fetches the owner's link and its events in the requested range.
// Any read failure is reported as unavailable; no partial data is served.
func (h *AnalyticsHandler) load(
	ctx context.Context, req *AnalyticsRequest,
) (*shortener.ShortLink, []analytics.ClickEvent, error) {
	r, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, nil, err
	}

	link, err := h.links.Get(ctx, req.OwnerID, req.ID)
	if err != nil {
		if isMissing(err) {
			return nil, nil, huma.Error404NotFound(msgLinkNotFound)
		}

		h.logger.Error("analytics link read failed", zap.String("id", req.ID), zap.Error(err))

		return nil, nil, huma.Error503ServiceUnavailable(msgAnalyticsUnavailable)
	}

	events, err := h.clicks.ListByLink(ctx, link.ID, r)
	if err != nil {
		h.logger.Error("analytics click read failed", zap.String("id", link.ID), zap.Error(err))

		return nil, nil, huma.Error503ServiceUnavailable(msgAnalyticsUnavailable)
	}

	if events == nil {
		events = []analytics.ClickEvent{}
	}

	return link, events, nil
}

func parseRange(from, to string) (analytics.DateRange, error) {
	var start, end time.Time

	var err error

	if from != "" {
		if start, err = time.Parse(time.DateOnly, from); err != nil {
			return analytics.DateRange{}, huma.Error400BadRequest("from must be a YYYY-MM-DD date")
		}
	}

	if to != "" {
		if end, err = time.Parse(time.DateOnly, to); err != nil {
			return analytics.DateRange{}, huma.Error400BadRequest("to must be a YYYY-MM-DD date")
		}
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return analytics.DateRange{}, huma.Error400BadRequest("to must not be before from")
	}

	return analytics.DaysRange(start, end), nil
}
