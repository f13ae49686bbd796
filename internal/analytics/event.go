package analytics

import "time"

// TopicClickRecorded is the stream topic click events are published to.
const TopicClickRecorded = "click.recorded"

// ClickEvent represents one resolved visit of a short link. Events are
// immutable once written.
type ClickEvent struct {
	ID          string    `json:"id"`
	ShortLinkID string    `json:"shortLinkId"`
	Timestamp   time.Time `json:"timestamp"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	Country     string    `json:"country,omitempty"`
	City        string    `json:"city,omitempty"`
	Device      string    `json:"device,omitempty"`
	Browser     string    `json:"browser,omitempty"`
	OS          string    `json:"os,omitempty"`
	UTMSource   string    `json:"utmSource,omitempty"`
	UTMMedium   string    `json:"utmMedium,omitempty"`
	UTMCampaign string    `json:"utmCampaign,omitempty"`
	UTMTerm     string    `json:"utmTerm,omitempty"`
	UTMContent  string    `json:"utmContent,omitempty"`
}

// DateRange restricts a listing to events between From and To, both
// inclusive. A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether ts falls inside the range.
func (r DateRange) Contains(ts time.Time) bool {
	if r.From != nil && ts.Before(*r.From) {
		return false
	}

	if r.To != nil && ts.After(*r.To) {
		return false
	}

	return true
}

// DaysRange builds an inclusive range covering whole UTC days. Zero times
// leave the corresponding bound open.
func DaysRange(from, to time.Time) DateRange {
	var r DateRange

	if !from.IsZero() {
		start := truncateDay(from)
		r.From = &start
	}

	if !to.IsZero() {
		end := truncateDay(to).Add(24*time.Hour - time.Nanosecond)
		r.To = &end
	}

	return r
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
