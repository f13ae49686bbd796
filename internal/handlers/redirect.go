package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkpulse/internal/ratelimit"
	"github.com/serroba/linkpulse/internal/resolver"
	"go.uber.org/zap"
)

// RedirectHandler resolves short codes for visitors.
type RedirectHandler struct {
	engine *resolver.Engine
	// attempts caps failed password attempts per short code across all clients.
	attempts ratelimit.FailureLimiter
	logger   *zap.Logger
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(
	engine *resolver.Engine, attempts ratelimit.FailureLimiter, logger *zap.Logger,
) *RedirectHandler {
	return &RedirectHandler{
		engine:   engine,
		attempts: attempts,
		logger:   logger,
	}
}

func (h *RedirectHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	out, err := h.engine.Resolve(ctx, resolver.Request{
		Code:  req.Code,
		Visit: meta.Visit(),
	})

	return h.respond(req.Code, out, err)
}

// Unlock resolves a protected link. Only wrong passwords count against the
// code's attempt budget; unknown codes and correct passwords are free.
func (h *RedirectHandler) Unlock(ctx context.Context, req *UnlockRequest) (*RedirectResponse, error) {
	blocked, err := h.attempts.Blocked(ctx, req.Code)
	if err != nil {
		h.logger.Error("password attempt check failed", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	if blocked {
		h.logger.Warn("password attempts exceeded", zap.String("code", req.Code))

		return nil, huma.Error429TooManyRequests("too many password attempts")
	}

	meta := RequestMetaFromContext(ctx)
	password := req.Body.Password

	out, err := h.engine.Resolve(ctx, resolver.Request{
		Code:     req.Code,
		Password: &password,
		Visit:    meta.Visit(),
	})

	if err == nil && out.Kind == resolver.InvalidPassword {
		if ferr := h.attempts.RecordFailure(ctx, req.Code); ferr != nil {
			h.logger.Error("failed to record password attempt", zap.String("code", req.Code), zap.Error(ferr))
		}
	}

	return h.respond(req.Code, out, err)
}

func (h *RedirectHandler) respond(code string, out resolver.Outcome, err error) (*RedirectResponse, error) {
	if err != nil {
		h.logger.Error("resolution failed", zap.String("code", code), zap.Error(err))

		return nil, huma.Error500InternalServerError("internal server error")
	}

	switch out.Kind {
	case resolver.Redirect, resolver.RedirectExpired:
		return &RedirectResponse{
			Status:       http.StatusFound,
			Location:     out.Location,
			CacheControl: "no-store",
		}, nil
	case resolver.Expired:
		return nil, huma.Error410Gone("link has expired")
	case resolver.PasswordRequired:
		return nil, huma.Error401Unauthorized("password required")
	case resolver.InvalidPassword:
		return nil, huma.Error401Unauthorized("incorrect password")
	default:
		return nil, huma.Error404NotFound(msgLinkNotFound)
	}
}
