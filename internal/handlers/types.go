package handlers

import (
	"time"

	"github.com/serroba/linkpulse/internal/analytics"
	"github.com/serroba/linkpulse/internal/shortener"
)

// CreateLinkRequest is the request for creating a short link.
type CreateLinkRequest struct {
	OwnerID string `doc:"Owner of the link" header:"X-Owner-ID" minLength:"1" required:"true"`
	Body    struct {
		URL           string                `doc:"The destination URL"                    example:"https://example.com/very/long/path" json:"url"`
		CustomCode    string                `doc:"Owner-chosen short code"                example:"spring24"                           json:"customCode,omitempty"`
		Password      string                `doc:"Password visitors must supply"          json:"password,omitempty"`
		ExpiresAt     *time.Time            `doc:"Instant after which the link expires"   json:"expiresAt,omitempty"`
		ExpirationURL string                `doc:"Destination served once expired"        json:"expirationUrl,omitempty"`
		Tags          []string              `doc:"Free-form labels"                       json:"tags,omitempty"`
		Campaigns     []shortener.UTMParams `doc:"Named UTM bundles for copy-time decoration" json:"campaigns,omitempty"`
	}
}

// CampaignURL is a stored UTM bundle together with the decorated destination.
type CampaignURL struct {
	Campaign shortener.UTMParams `json:"campaign"`
	URL      string              `doc:"Destination with the bundle's utm_* parameters" json:"url"`
}

// LinkBody is the owner-facing representation of a short link.
type LinkBody struct {
	ID            string        `json:"id"`
	Code          string        `example:"abc123"                        json:"code"`
	ShortURL      string        `example:"http://localhost:8888/abc123"  json:"shortUrl"`
	OriginalURL   string        `json:"originalUrl"`
	ExpirationURL string        `json:"expirationUrl,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
	Protected     bool          `doc:"Whether visitors need a password" json:"protected"`
	Clicks        int64         `json:"clicks"`
	Tags          []string      `json:"tags"`
	Campaigns     []CampaignURL `json:"campaigns"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// LinkResponse wraps a single link.
type LinkResponse struct {
	Body LinkBody
}

// CreateLinkResponse is the response for a successfully created link.
type CreateLinkResponse struct {
	Location string `doc:"The short URL" header:"Location"`
	Body     LinkBody
}

// ListLinksRequest lists an owner's links.
type ListLinksRequest struct {
	OwnerID string `header:"X-Owner-ID" minLength:"1" required:"true"`
}

// ListLinksResponse is the response for listing links.
type ListLinksResponse struct {
	Body struct {
		Links []LinkBody `json:"links"`
	}
}

// LinkRequest addresses one of the owner's links.
type LinkRequest struct {
	OwnerID string `header:"X-Owner-ID" minLength:"1" required:"true"`
	ID      string `doc:"Link id"       path:"id"`
}

// UpdateLinkRequest replaces fields of a link in place. Absent fields are
// left unchanged.
type UpdateLinkRequest struct {
	OwnerID string `header:"X-Owner-ID" minLength:"1" required:"true"`
	ID      string `path:"id"`
	Body    struct {
		Code          *string               `json:"code,omitempty"`
		URL           *string               `json:"url,omitempty"`
		Password      *string               `doc:"Empty string removes protection" json:"password,omitempty"`
		ExpiresAt     *time.Time            `json:"expiresAt,omitempty"`
		ClearExpiry   bool                  `doc:"Remove the expiry"               json:"clearExpiry,omitempty"`
		ExpirationURL *string               `json:"expirationUrl,omitempty"`
		Tags          []string              `json:"tags,omitempty"`
		Campaigns     []shortener.UTMParams `json:"campaigns,omitempty"`
	}
}

// AnalyticsRequest selects the events aggregated for a link.
type AnalyticsRequest struct {
	OwnerID string `header:"X-Owner-ID" minLength:"1" required:"true"`
	ID      string `path:"id"`
	From    string `doc:"First day, inclusive"  example:"2024-03-01" format:"date" query:"from"`
	To      string `doc:"Last day, inclusive"   example:"2024-03-31" format:"date" query:"to"`
	Detail  string `doc:"Analytics entitlement, basic or full; case-insensitive" header:"X-Analytics-Detail"`
}

// AnalyticsBody is the dashboard payload: raw rollups plus ranked views.
type AnalyticsBody struct {
	LinkID string `json:"linkId"`
	Code   string `json:"code"`
	Clicks int64  `doc:"Lifetime click counter" json:"clicks"`
	analytics.Snapshot
	Charts map[analytics.Dimension][]analytics.Ranked `doc:"Top entries per dimension for charts" json:"charts"`
	Tables map[analytics.Dimension][]analytics.Ranked `doc:"Top entries per dimension for tables" json:"tables"`
}

// AnalyticsResponse is the response for the analytics endpoint.
type AnalyticsResponse struct {
	Body AnalyticsBody
}

// ClicksResponse lists raw click events for export.
type ClicksResponse struct {
	Body struct {
		Clicks []analytics.ClickEvent `json:"clicks"`
	}
}

// RedirectRequest is the request for resolving a short code.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// UnlockRequest resolves a password-protected short code.
type UnlockRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
	Body struct {
		Password string `json:"password"`
	}
}

// RedirectResponse sends the visitor on with a 302.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}
