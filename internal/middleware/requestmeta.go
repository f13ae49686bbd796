package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/mssola/useragent"
	"github.com/serroba/linkpulse/internal/handlers"
	"github.com/serroba/linkpulse/internal/shortener"
)

const unknownCountry = "XX"

// RequestMeta is a middleware that captures the visitor attributes recorded
// on click events: client IP, user agent, referrer, geo headers set by the
// edge proxy, and utm_* parameters of the inbound URL.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		uaString := ctx.Header("User-Agent")
		browser, os, device := parseUserAgent(uaString)

		meta := handlers.RequestMeta{
			ClientIP:  ClientIP(ctx),
			UserAgent: uaString,
			Referrer:  ctx.Header("Referer"),
			Country:   country(ctx),
			City:      strings.TrimSpace(ctx.Header("X-Geo-City")),
			Device:    device,
			Browser:   browser,
			OS:        os,
			UTM:       shortener.UTMFromQuery(ctx.URL().Query()),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// country reads the Cloudflare header first, then the generic one. The
// "XX" placeholder means the proxy could not place the client.
func country(ctx huma.Context) string {
	for _, h := range []string{"CF-IPCountry", "X-Geo-Country"} {
		v := strings.ToUpper(strings.TrimSpace(ctx.Header(h)))
		if v != "" && v != unknownCountry {
			return v
		}
	}

	return ""
}

// parseUserAgent classifies a User-Agent header. Empty input yields empty
// fields; analytics reports those as unknown.
func parseUserAgent(uaString string) (browser, os, device string) {
	if uaString == "" {
		return "", "", ""
	}

	ua := useragent.New(uaString)
	browser, _ = ua.Browser()
	os = ua.OSInfo().Name

	switch {
	case ua.Bot():
		device = "Bot"
	case strings.Contains(uaString, "iPad"),
		strings.Contains(uaString, "Android") && !strings.Contains(uaString, "Mobile"):
		device = "Tablet"
	case ua.Mobile():
		device = "Mobile"
	default:
		device = "Desktop"
	}

	return browser, os, device
}
