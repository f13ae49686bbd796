package shortener

import (
	"context"
	"errors"
)

// MaxAllocationAttempts bounds how many generated codes are tried before
// creation fails with ErrCodeExhausted.
const MaxAllocationAttempts = 3

// Strategy assigns a code to a new link and persists it.
type Strategy interface {
	Allocate(ctx context.Context, link *ShortLink) error
}

// GeneratedStrategy draws a fresh code for each attempt and relies on the
// store's uniqueness constraint to detect collisions.
type GeneratedStrategy struct {
	store        Repository
	generateCode CodeGenerator
	attempts     int
}

// NewGeneratedStrategy creates a strategy that allocates generated codes.
func NewGeneratedStrategy(store Repository, generator CodeGenerator) *GeneratedStrategy {
	return &GeneratedStrategy{
		store:        store,
		generateCode: generator,
		attempts:     MaxAllocationAttempts,
	}
}

func (s *GeneratedStrategy) Allocate(ctx context.Context, link *ShortLink) error {
	for range s.attempts {
		link.Code = Code(s.generateCode())

		err := s.store.Save(ctx, link)
		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return err
		}
	}

	link.Code = ""

	return ErrCodeExhausted
}

// CustomStrategy persists an owner-chosen code. It never retries: a taken
// custom code is reported to the owner.
type CustomStrategy struct {
	store Repository
}

// NewCustomStrategy creates a strategy for owner-supplied codes.
func NewCustomStrategy(store Repository) *CustomStrategy {
	return &CustomStrategy{store: store}
}

func (s *CustomStrategy) Allocate(ctx context.Context, link *ShortLink) error {
	if err := ValidateCustomCode(string(link.Code)); err != nil {
		return err
	}

	return s.store.Save(ctx, link)
}
