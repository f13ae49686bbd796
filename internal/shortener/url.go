package shortener

import (
	"net/url"
	"strings"
)

// UTM query parameter names.
const (
	ParamSource   = "utm_source"
	ParamMedium   = "utm_medium"
	ParamCampaign = "utm_campaign"
	ParamTerm     = "utm_term"
	ParamContent  = "utm_content"
)

// NormalizeURL validates a destination URL and normalizes it for storage.
// - Requires an absolute http or https URL with a host
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes empty fragment
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", ErrInvalidURL
	}

	u.Host = strings.ToLower(u.Host)

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	if u.Fragment == "" {
		u.RawFragment = ""
	}

	return u.String(), nil
}

// Values returns the bundle's non-empty fields keyed by utm_* parameter name.
func (p UTMParams) Values() url.Values {
	v := url.Values{}

	for key, val := range map[string]string{
		ParamSource:   p.Source,
		ParamMedium:   p.Medium,
		ParamCampaign: p.Campaign,
		ParamTerm:     p.Term,
		ParamContent:  p.Content,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}

	return v
}

// Overlay returns a copy of p where every non-empty field of top replaces
// the corresponding field of p. The name of p is kept.
func (p UTMParams) Overlay(top UTMParams) UTMParams {
	out := p

	if top.Source != "" {
		out.Source = top.Source
	}

	if top.Medium != "" {
		out.Medium = top.Medium
	}

	if top.Campaign != "" {
		out.Campaign = top.Campaign
	}

	if top.Term != "" {
		out.Term = top.Term
	}

	if top.Content != "" {
		out.Content = top.Content
	}

	return out
}

// UTMFromQuery extracts the utm_* parameters of a query string.
func UTMFromQuery(q url.Values) UTMParams {
	return UTMParams{
		Source:   q.Get(ParamSource),
		Medium:   q.Get(ParamMedium),
		Campaign: q.Get(ParamCampaign),
		Term:     q.Get(ParamTerm),
		Content:  q.Get(ParamContent),
	}
}

// DecorateURL appends the bundle's utm_* parameters to the destination.
// Query parameters already on the destination are preserved; utm_* keys
// the bundle defines replace destination values of the same key.
func DecorateURL(destination string, params UTMParams) (string, error) {
	return mergeQuery(destination, params.Values(), true)
}

// MergeQuery adds the given parameters to the destination without
// replacing any key the destination already carries.
func MergeQuery(destination string, extra url.Values) (string, error) {
	return mergeQuery(destination, extra, false)
}

func mergeQuery(destination string, extra url.Values, replace bool) (string, error) {
	if len(extra) == 0 {
		return destination, nil
	}

	u, err := url.Parse(destination)
	if err != nil {
		return "", ErrInvalidURL
	}

	q := u.Query()

	for key, vals := range extra {
		if _, exists := q[key]; exists && !replace {
			continue
		}

		q[key] = vals
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}
