package handlers

import (
	"context"

	"github.com/serroba/linkpulse/internal/resolver"
	"github.com/serroba/linkpulse/internal/shortener"
)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata captured on click events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Country   string
	City      string
	Device    string
	Browser   string
	OS        string
	UTM       shortener.UTMParams
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// Visit converts the metadata into the resolver's click attributes.
func (m RequestMeta) Visit() resolver.Visit {
	return resolver.Visit{
		IPAddress: m.ClientIP,
		UserAgent: m.UserAgent,
		Referrer:  m.Referrer,
		Country:   m.Country,
		City:      m.City,
		Device:    m.Device,
		Browser:   m.Browser,
		OS:        m.OS,
		UTM:       m.UTM,
	}
}
