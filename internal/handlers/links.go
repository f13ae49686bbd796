package handlers

import (
	"context"
	"fmt"

	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler handles the owner-facing link lifecycle.
type LinkHandler struct {
	service *shortener.Service
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler. baseURL prefixes short codes
// in responses.
func NewLinkHandler(service *shortener.Service, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.service.Create(ctx, shortener.CreateInput{
		OwnerID:       req.OwnerID,
		URL:           req.Body.URL,
		CustomCode:    req.Body.CustomCode,
		Password:      req.Body.Password,
		ExpiresAt:     req.Body.ExpiresAt,
		ExpirationURL: req.Body.ExpirationURL,
		Tags:          req.Body.Tags,
		Campaigns:     req.Body.Campaigns,
	})
	if err != nil {
		return nil, linkError(h.logger, "create", err)
	}

	resp := &CreateLinkResponse{Body: h.toBody(link)}
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	links, err := h.service.List(ctx, req.OwnerID)
	if err != nil {
		return nil, linkError(h.logger, "list", err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkBody, 0, len(links))

	for _, link := range links {
		resp.Body.Links = append(resp.Body.Links, h.toBody(link))
	}

	return resp, nil
}

func (h *LinkHandler) GetLink(ctx context.Context, req *LinkRequest) (*LinkResponse, error) {
	link, err := h.service.Get(ctx, req.OwnerID, req.ID)
	if err != nil {
		return nil, linkError(h.logger, "get", err)
	}

	return &LinkResponse{Body: h.toBody(link)}, nil
}

func (h *LinkHandler) UpdateLink(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	in := shortener.UpdateInput{
		Code:          req.Body.Code,
		URL:           req.Body.URL,
		Password:      req.Body.Password,
		ExpiresAt:     req.Body.ExpiresAt,
		ClearExpiry:   req.Body.ClearExpiry,
		ExpirationURL: req.Body.ExpirationURL,
	}

	// A present but empty list clears; an absent one keeps.
	if req.Body.Tags != nil {
		in.Tags = &req.Body.Tags
	}

	if req.Body.Campaigns != nil {
		in.Campaigns = &req.Body.Campaigns
	}

	link, err := h.service.Update(ctx, req.OwnerID, req.ID, in)
	if err != nil {
		return nil, linkError(h.logger, "update", err)
	}

	return &LinkResponse{Body: h.toBody(link)}, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *LinkRequest) (*struct{}, error) {
	if err := h.service.Delete(ctx, req.OwnerID, req.ID); err != nil {
		return nil, linkError(h.logger, "delete", err)
	}

	return nil, nil
}

func (h *LinkHandler) toBody(link *shortener.ShortLink) LinkBody {
	body := LinkBody{
		ID:            link.ID,
		Code:          string(link.Code),
		ShortURL:      fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		OriginalURL:   link.OriginalURL,
		ExpirationURL: link.ExpirationURL,
		ExpiresAt:     link.ExpiresAt,
		Protected:     link.IsProtected(),
		Clicks:        link.Clicks,
		Tags:          append([]string{}, link.Tags...),
		Campaigns:     make([]CampaignURL, 0, len(link.Campaigns)),
		CreatedAt:     link.CreatedAt,
		UpdatedAt:     link.UpdatedAt,
	}

	for _, c := range link.Campaigns {
		decorated, err := shortener.DecorateURL(link.OriginalURL, c)
		if err != nil {
			h.logger.Warn("failed to decorate campaign url",
				zap.String("code", string(link.Code)),
				zap.String("campaign", c.Name),
				zap.Error(err),
			)

			decorated = link.OriginalURL
		}

		body.Campaigns = append(body.Campaigns, CampaignURL{Campaign: c, URL: decorated})
	}

	return body
}
