package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

const msgLinkNotFound = "link not found"

// linkError maps service errors to problem responses. Links of other
// owners are reported as missing so existence does not leak.
func linkError(logger *zap.Logger, op string, err error) error {
	switch {
	case isMissing(err):
		return huma.Error404NotFound(msgLinkNotFound)
	case errors.Is(err, shortener.ErrCodeTaken):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, shortener.ErrInvalidCode),
		errors.Is(err, shortener.ErrInvalidURL),
		errors.Is(err, shortener.ErrInvalidUTM):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, shortener.ErrCodeExhausted):
		logger.Warn("code allocation exhausted", zap.String("op", op))

		return huma.Error503ServiceUnavailable(err.Error())
	default:
		logger.Error("link operation failed", zap.String("op", op), zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}

func isMissing(err error) bool {
	return errors.Is(err, shortener.ErrNotFound) || errors.Is(err, shortener.ErrForbidden)
}
