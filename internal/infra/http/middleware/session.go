package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/auth"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

const SessionCookieName = "bl_session"

type identityKey struct{}

type SessionParser interface {
	Parse(token string) (*auth.Claims, error)
}

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (entity.Identity, error)
}

// Session resolves the session cookie into an identity stored on the request
// context. Requests without a valid session pass through anonymously.
func Session(parser SessionParser, resolver IdentityResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parser.Parse(cookie.Value)
			if err != nil {
				logger.Debug("Ignoring invalid session", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.ResolveIdentity(r.Context(), claims.UserID)
			if usecase.IsTechnicalError(err) {
				logger.Error("Failed resolving session identity", zap.String("userId", claims.UserID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, usecase.CodeStorage, "failed to resolve session")
				return
			}
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity rejects requests that carry no resolved identity.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity entity.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (entity.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(entity.Identity)
	return identity, ok
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"ok":      false,
		"error":   code,
		"message": message,
	})
}
