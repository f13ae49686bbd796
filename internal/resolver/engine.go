// Package resolver turns an inbound short code into a redirect decision.
//
// Resolution is a short linear sequence of checks: lookup, expiry,
// password, then click recording. Each check may end resolution with its
// own Outcome. Domain outcomes are values; only infrastructure failures
// while deciding the destination are returned as errors.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkpulse/internal/analytics"
	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

// Kind identifies the terminal state of a resolution.
type Kind string

const (
	NotFound         Kind = "not_found"
	Expired          Kind = "expired"
	PasswordRequired Kind = "password_required"
	InvalidPassword  Kind = "invalid_password"
	Redirect         Kind = "redirect"
	RedirectExpired  Kind = "redirect_expired"
)

// Outcome is the redirect decision. Location is set only for Redirect and
// RedirectExpired.
type Outcome struct {
	Kind     Kind
	Location string
}

// Visit carries the request attributes captured on the click event.
type Visit struct {
	IPAddress string
	UserAgent string
	Referrer  string
	Country   string
	City      string
	Device    string
	Browser   string
	OS        string

	// UTM holds the utm_* query parameters present on the short URL itself.
	UTM shortener.UTMParams
}

// Request is a single resolution attempt.
type Request struct {
	Code     string
	Password *string // nil when the caller has not collected a password
	Visit    Visit
}

// Recorder appends click events. Implementations may be synchronous
// stores or stream publishers.
type Recorder interface {
	Record(ctx context.Context, event *analytics.ClickEvent) error
}

// Engine resolves short codes.
type Engine struct {
	links    shortener.Repository
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a resolution engine.
func NewEngine(links shortener.Repository, recorder Recorder, logger *zap.Logger) *Engine {
	return &Engine{
		links:    links,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve runs the resolution sequence for one request.
func (e *Engine) Resolve(ctx context.Context, req Request) (Outcome, error) {
	if err := shortener.ValidateCode(req.Code); err != nil {
		return Outcome{Kind: NotFound}, nil
	}

	link, err := e.links.GetByCode(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return Outcome{Kind: NotFound}, nil
		}

		return Outcome{}, fmt.Errorf("lookup %s: %w", req.Code, err)
	}

	now := e.now()

	if link.IsExpired(now) {
		if link.ExpirationURL == "" {
			return Outcome{Kind: Expired}, nil
		}

		e.track(ctx, link, req.Visit, now)

		return Outcome{Kind: RedirectExpired, Location: link.ExpirationURL}, nil
	}

	if link.IsProtected() {
		if req.Password == nil {
			return Outcome{Kind: PasswordRequired}, nil
		}

		ok, err := shortener.CheckPassword(link.PasswordHash, *req.Password)
		if err != nil {
			return Outcome{}, fmt.Errorf("verify password for %s: %w", link.Code, err)
		}

		if !ok {
			return Outcome{Kind: InvalidPassword}, nil
		}
	}

	e.track(ctx, link, req.Visit, now)

	return Outcome{Kind: Redirect, Location: e.destination(link, req.Visit)}, nil
}

// destination forwards inbound utm_* parameters the stored URL lacks.
func (e *Engine) destination(link *shortener.ShortLink, visit Visit) string {
	dest, err := shortener.MergeQuery(link.OriginalURL, visit.UTM.Values())
	if err != nil {
		e.logger.Warn("failed to merge inbound utm parameters",
			zap.String("code", string(link.Code)),
			zap.Error(err),
		)

		return link.OriginalURL
	}

	return dest
}

// track records the click and bumps the counter. Both writes are
// best-effort: failures are logged and never change the outcome.
func (e *Engine) track(ctx context.Context, link *shortener.ShortLink, visit Visit, now time.Time) {
	event := newClickEvent(link, visit, now)

	if err := e.recorder.Record(ctx, event); err != nil {
		e.logger.Error("failed to record click",
			zap.String("code", string(link.Code)),
			zap.String("shortLinkId", link.ID),
			zap.Error(err),
		)
	}

	if err := e.links.IncrementClicks(ctx, link.ID); err != nil {
		e.logger.Error("failed to increment click counter",
			zap.String("code", string(link.Code)),
			zap.String("shortLinkId", link.ID),
			zap.Error(err),
		)
	}
}

func newClickEvent(link *shortener.ShortLink, visit Visit, now time.Time) *analytics.ClickEvent {
	base, _ := link.PrimaryCampaign()
	utm := base.Overlay(visit.UTM)

	return &analytics.ClickEvent{
		ID:          uuid.NewString(),
		ShortLinkID: link.ID,
		Timestamp:   now.UTC(),
		IPAddress:   visit.IPAddress,
		UserAgent:   visit.UserAgent,
		Referrer:    visit.Referrer,
		Country:     visit.Country,
		City:        visit.City,
		Device:      visit.Device,
		Browser:     visit.Browser,
		OS:          visit.OS,
		UTMSource:   utm.Source,
		UTMMedium:   utm.Medium,
		UTMCampaign: utm.Campaign,
		UTMTerm:     utm.Term,
		UTMContent:  utm.Content,
	}
}
