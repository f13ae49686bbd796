package shortener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateInput describes a link submitted by its owner.
type CreateInput struct {
	OwnerID       string
	URL           string
	CustomCode    string
	Password      string
	ExpiresAt     *time.Time
	ExpirationURL string
	Tags          []string
	Campaigns     []UTMParams
}

// UpdateInput lists replace-in-place edits. Nil fields are left unchanged.
type UpdateInput struct {
	Code          *string
	URL           *string
	Password      *string // empty string removes protection
	ExpiresAt     *time.Time
	ClearExpiry   bool
	ExpirationURL *string
	Tags          *[]string
	Campaigns     *[]UTMParams
}

// Service manages the lifecycle of short links on behalf of their owners.
type Service struct {
	store     Repository
	generated Strategy
	custom    Strategy
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a link service allocating codes with generator.
func NewService(store Repository, generator CodeGenerator, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		generated: NewGeneratedStrategy(store, generator),
		custom:    NewCustomStrategy(store),
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the input and stores a new link. Custom codes bypass
// the generator; generated codes are retried on collision.
func (s *Service) Create(ctx context.Context, in CreateInput) (*ShortLink, error) {
	dest, err := NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}

	link := &ShortLink{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		OriginalURL: dest,
		ExpiresAt:   in.ExpiresAt,
		Tags:        normalizeTags(in.Tags),
	}

	if in.ExpirationURL != "" {
		if link.ExpirationURL, err = NormalizeURL(in.ExpirationURL); err != nil {
			return nil, err
		}
	}

	if link.Campaigns, err = validateCampaigns(in.Campaigns); err != nil {
		return nil, err
	}

	if in.Password != "" {
		if link.PasswordHash, err = HashPassword(in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	link.CreatedAt = s.now().UTC()
	link.UpdatedAt = link.CreatedAt

	strategy := s.generated
	if in.CustomCode != "" {
		link.Code = Code(in.CustomCode)
		strategy = s.custom
	}

	if err = strategy.Allocate(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("link created",
		zap.String("id", link.ID),
		zap.String("code", string(link.Code)),
		zap.Bool("custom", in.CustomCode != ""),
	)

	return link, nil
}

// Get returns an owner's link by id.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*ShortLink, error) {
	link, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if link.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	return link, nil
}

// List returns all links of an owner.
func (s *Service) List(ctx context.Context, ownerID string) ([]*ShortLink, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Update applies replace-in-place edits to an owner's link.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*ShortLink, error) {
	link, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err = s.apply(link, in); err != nil {
		return nil, err
	}

	link.UpdatedAt = s.now().UTC()

	if err = s.store.Update(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("link updated", zap.String("id", link.ID), zap.String("code", string(link.Code)))

	return link, nil
}

func (s *Service) apply(link *ShortLink, in UpdateInput) error {
	if in.Code != nil {
		if err := ValidateCustomCode(*in.Code); err != nil {
			return err
		}

		link.Code = Code(*in.Code)
	}

	if in.URL != nil {
		dest, err := NormalizeURL(*in.URL)
		if err != nil {
			return err
		}

		link.OriginalURL = dest
	}

	if in.ExpirationURL != nil {
		link.ExpirationURL = ""

		if *in.ExpirationURL != "" {
			dest, err := NormalizeURL(*in.ExpirationURL)
			if err != nil {
				return err
			}

			link.ExpirationURL = dest
		}
	}

	switch {
	case in.ClearExpiry:
		link.ExpiresAt = nil
	case in.ExpiresAt != nil:
		link.ExpiresAt = in.ExpiresAt
	}

	if in.Password != nil {
		link.PasswordHash = ""

		if *in.Password != "" {
			hash, err := HashPassword(*in.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			link.PasswordHash = hash
		}
	}

	if in.Tags != nil {
		link.Tags = normalizeTags(*in.Tags)
	}

	if in.Campaigns != nil {
		campaigns, err := validateCampaigns(*in.Campaigns)
		if err != nil {
			return err
		}

		link.Campaigns = campaigns
	}

	return nil
}

// Delete removes an owner's link and, by cascade, its click events.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("link deleted", zap.String("id", id))

	return nil
}

// normalizeTags trims names and drops empty and duplicate entries, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

func validateCampaigns(campaigns []UTMParams) ([]UTMParams, error) {
	out := make([]UTMParams, 0, len(campaigns))

	for _, c := range campaigns {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, ErrInvalidUTM
		}

		out = append(out, c)
	}

	return out, nil
}
