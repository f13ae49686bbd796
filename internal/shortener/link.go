package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrCodeTaken     = errors.New("short code already in use")
	ErrCodeExhausted = errors.New("could not allocate identifier")
	ErrInvalidCode   = errors.New("short code must be 3-15 alphanumeric characters")
	ErrInvalidURL    = errors.New("url must be an absolute http or https url")
	ErrInvalidUTM    = errors.New("campaign name is required")
	ErrForbidden     = errors.New("link belongs to another owner")
)

// Code represents a short link code.
type Code string

// UTMParams is a named bundle of campaign parameters attachable to a link.
type UTMParams struct {
	Name     string `json:"name"`
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// ShortLink represents a shortened URL with its protection rules.
type ShortLink struct {
	ID            string
	Code          Code
	OwnerID       string
	OriginalURL   string
	ExpirationURL string     // served instead of OriginalURL once expired
	ExpiresAt     *time.Time // nil means the link never expires
	PasswordHash  string     // bcrypt hash, empty when unprotected
	Clicks        int64
	Tags          []string
	Campaigns     []UTMParams
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsExpired reports whether the link's expiry lies before now.
func (l *ShortLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// IsProtected reports whether resolution requires a password.
func (l *ShortLink) IsProtected() bool {
	return l.PasswordHash != ""
}

// PrimaryCampaign returns the first stored UTM bundle, if any.
func (l *ShortLink) PrimaryCampaign() (UTMParams, bool) {
	if len(l.Campaigns) == 0 {
		return UTMParams{}, false
	}

	return l.Campaigns[0], true
}

// Repository is the durable record of short links.
//
// Code uniqueness is enforced by the implementation's storage layer:
// Save and Update return ErrCodeTaken when the code is already in use.
type Repository interface {
	Save(ctx context.Context, link *ShortLink) error
	GetByCode(ctx context.Context, code Code) (*ShortLink, error)
	GetByID(ctx context.Context, id string) (*ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*ShortLink, error)
	Update(ctx context.Context, link *ShortLink) error

	// Delete removes the link together with its click events, tag
	// associations and campaign bundles.
	Delete(ctx context.Context, id string) error

	// IncrementClicks atomically adds one to the link's click counter.
	IncrementClicks(ctx context.Context, id string) error

	// DeleteExpired removes every link whose expiry is before now and
	// returns the removed links.
	DeleteExpired(ctx context.Context, now time.Time) ([]*ShortLink, error)
}
