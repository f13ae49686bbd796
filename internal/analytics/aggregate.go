package analytics

import (
	"slices"
	"sort"
	"strings"

	"github.com/serroba/linkpulse/internal/shortener"
)

// Fallback literals substituted for absent optional fields.
const (
	Unknown = "Unknown"
	Direct  = "Direct"
)

// RecentLimit is the number of most recent events kept in a snapshot.
const RecentLimit = 10

const dateLayout = "2006-01-02"

// DetailLevel selects which dimensions are computed. It is an entitlement
// decided by the caller, not enforced here.
type DetailLevel string

const (
	DetailBasic DetailLevel = "basic"
	DetailFull  DetailLevel = "full"
)

// ParseDetailLevel maps a header or query value to a DetailLevel,
// defaulting to basic.
func ParseDetailLevel(s string) DetailLevel {
	if strings.EqualFold(strings.TrimSpace(s), string(DetailFull)) {
		return DetailFull
	}

	return DetailBasic
}

// Dimension names a rollup of a snapshot.
type Dimension string

const (
	DimDate        Dimension = "date"
	DimCountry     Dimension = "country"
	DimCity        Dimension = "city"
	DimDevice      Dimension = "device"
	DimBrowser     Dimension = "browser"
	DimOS          Dimension = "os"
	DimReferrer    Dimension = "referrer"
	DimUTMSource   Dimension = "utm_source"
	DimUTMMedium   Dimension = "utm_medium"
	DimUTMCampaign Dimension = "utm_campaign"
	DimUTMTerm     Dimension = "utm_term"
	DimUTMContent  Dimension = "utm_content"
)

// Dimensions lists every rollup in presentation order.
var Dimensions = []Dimension{
	DimDate, DimCountry, DimCity, DimDevice, DimBrowser, DimOS, DimReferrer,
	DimUTMSource, DimUTMMedium, DimUTMCampaign, DimUTMTerm, DimUTMContent,
}

// DateCount is one point of the time series.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountryBreakdown is the drill-down of one country for map views.
type CountryBreakdown struct {
	TotalClicks int            `json:"totalClicks"`
	Cities      map[string]int `json:"cities"`
}

// Snapshot holds the rollups of a link's click events.
type Snapshot struct {
	Level            DetailLevel                 `json:"level"`
	TotalClicks      int                         `json:"totalClicks"`
	ClicksByDate     []DateCount                 `json:"clicksByDate"`
	ClicksByCountry  map[string]int              `json:"clicksByCountry"`
	ClicksByCity     map[string]int              `json:"clicksByCity"`
	Geo              map[string]CountryBreakdown `json:"geo"`
	ClicksByDevice   map[string]int              `json:"clicksByDevice"`
	ClicksByBrowser  map[string]int              `json:"clicksByBrowser"`
	ClicksByOS       map[string]int              `json:"clicksByOs"`
	ClicksByReferrer map[string]int              `json:"clicksByReferrer"`
	UTMSource        map[string]int              `json:"utmSource"`
	UTMMedium        map[string]int              `json:"utmMedium"`
	UTMCampaign      map[string]int              `json:"utmCampaign"`
	UTMTerm          map[string]int              `json:"utmTerm"`
	UTMContent       map[string]int              `json:"utmContent"`
	RecentClicks     []ClickEvent                `json:"recentClicks"`
	DefinedCampaigns []shortener.UTMParams       `json:"definedCampaigns"`
}

// Aggregate buckets events along every dimension allowed by level. It is a
// pure transform: events is neither modified nor retained.
func Aggregate(link *shortener.ShortLink, events []ClickEvent, level DetailLevel) *Snapshot {
	s := newSnapshot(level)
	s.TotalClicks = len(events)
	s.DefinedCampaigns = slices.Clone(link.Campaigns)

	if s.DefinedCampaigns == nil {
		s.DefinedCampaigns = []shortener.UTMParams{}
	}

	byDate := make(map[string]int)
	geo := make(map[string]*CountryBreakdown)
	full := level == DetailFull

	for i := range events {
		e := &events[i]

		byDate[e.Timestamp.UTC().Format(dateLayout)]++

		country := orDefault(e.Country, Unknown)
		s.ClicksByCountry[country]++
		s.ClicksByDevice[orDefault(e.Device, Unknown)]++

		if !full {
			continue
		}

		city := orDefault(e.City, Unknown)
		s.ClicksByCity[city]++

		g, ok := geo[country]
		if !ok {
			g = &CountryBreakdown{Cities: make(map[string]int)}
			geo[country] = g
		}

		g.TotalClicks++
		g.Cities[city]++

		s.ClicksByBrowser[orDefault(e.Browser, Unknown)]++
		s.ClicksByOS[orDefault(e.OS, Unknown)]++
		s.ClicksByReferrer[orDefault(e.Referrer, Direct)]++
		s.UTMSource[orDefault(e.UTMSource, Unknown)]++
		s.UTMMedium[orDefault(e.UTMMedium, Unknown)]++
		s.UTMCampaign[orDefault(e.UTMCampaign, Unknown)]++
		s.UTMTerm[orDefault(e.UTMTerm, Unknown)]++
		s.UTMContent[orDefault(e.UTMContent, Unknown)]++
	}

	for country, g := range geo {
		s.Geo[country] = *g
	}

	s.ClicksByDate = sortedDates(byDate)
	s.RecentClicks = mostRecent(events, RecentLimit)

	return s
}

func newSnapshot(level DetailLevel) *Snapshot {
	return &Snapshot{
		Level:            level,
		ClicksByDate:     []DateCount{},
		ClicksByCountry:  map[string]int{},
		ClicksByCity:     map[string]int{},
		Geo:              map[string]CountryBreakdown{},
		ClicksByDevice:   map[string]int{},
		ClicksByBrowser:  map[string]int{},
		ClicksByOS:       map[string]int{},
		ClicksByReferrer: map[string]int{},
		UTMSource:        map[string]int{},
		UTMMedium:        map[string]int{},
		UTMCampaign:      map[string]int{},
		UTMTerm:          map[string]int{},
		UTMContent:       map[string]int{},
		RecentClicks:     []ClickEvent{},
	}
}

// Dimension returns the flat rollup for d, or nil for an unknown name.
func (s *Snapshot) Dimension(d Dimension) map[string]int {
	switch d {
	case DimDate:
		m := make(map[string]int, len(s.ClicksByDate))
		for _, dc := range s.ClicksByDate {
			m[dc.Date] = dc.Count
		}

		return m
	case DimCountry:
		return s.ClicksByCountry
	case DimCity:
		return s.ClicksByCity
	case DimDevice:
		return s.ClicksByDevice
	case DimBrowser:
		return s.ClicksByBrowser
	case DimOS:
		return s.ClicksByOS
	case DimReferrer:
		return s.ClicksByReferrer
	case DimUTMSource:
		return s.UTMSource
	case DimUTMMedium:
		return s.UTMMedium
	case DimUTMCampaign:
		return s.UTMCampaign
	case DimUTMTerm:
		return s.UTMTerm
	case DimUTMContent:
		return s.UTMContent
	default:
		return nil
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}

	return v
}

func sortedDates(byDate map[string]int) []DateCount {
	out := make([]DateCount, 0, len(byDate))
	for date, count := range byDate {
		out = append(out, DateCount{Date: date, Count: count})
	}

	// YYYY-MM-DD sorts chronologically as a string.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	return out
}

// mostRecent returns up to n events by descending timestamp, ties by ID.
func mostRecent(events []ClickEvent, n int) []ClickEvent {
	sorted := slices.Clone(events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID > sorted[j].ID
		}

		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	if sorted == nil {
		return []ClickEvent{}
	}

	return sorted
}
