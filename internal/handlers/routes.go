package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkpulse/internal/ratelimit"
)

// RegisterRoutes registers the link management, analytics and redirect
// routes with their per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, links *LinkHandler, redirects *RedirectHandler, stats *AnalyticsHandler) {
	registerLinkRoutes(api, links)
	registerAnalyticsRoutes(api, stats)
	registerRedirectRoutes(api, redirects)
}

func registerLinkRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Create short link",
		Description:   "Creates a short link with a generated or custom code.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List short links",
		Description: "Lists the caller's links, newest first.",
		Tags:        []string{"Links"},
	}, h.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/links/{id}",
		Summary:     "Get short link",
		Tags:        []string{"Links"},
	}, h.GetLink)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPatch,
		Path:        "/links/{id}",
		Summary:     "Update short link",
		Description: "Changes the code, destination, password, expiry, tags or campaigns of a link.",
		Tags:        []string{"Links"},
	}, h.UpdateLink)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links/{id}",
		Summary:       "Delete short link",
		Description:   "Deletes a link together with its click history.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteLink)
}

func registerAnalyticsRoutes(api huma.API, h *AnalyticsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-link-analytics",
		Method:      http.MethodGet,
		Path:        "/links/{id}/analytics",
		Summary:     "Link analytics",
		Description: "Aggregates the link's clicks over an optional day range.",
		Tags:        []string{"Analytics"},
	}, h.GetAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "list-link-clicks",
		Method:      http.MethodGet,
		Path:        "/links/{id}/clicks",
		Summary:     "Raw click events",
		Description: "Lists the link's click events over an optional day range, oldest first.",
		Tags:        []string{"Analytics"},
	}, h.ListClicks)
}

func registerRedirectRoutes(api huma.API, h *RedirectHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to destination",
		Description: "Redirects to the destination of the short code and records the click.",
		Tags:        []string{"Redirect"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.Redirect)

	huma.Register(api, huma.Operation{
		OperationID: "unlock",
		Method:      http.MethodPost,
		Path:        "/{code}/unlock",
		Summary:     "Unlock protected link",
		Description: "Checks the password of a protected link and redirects on success.",
		Tags:        []string{"Redirect"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeUnlock},
		},
	}, h.Unlock)
}
