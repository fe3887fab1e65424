// Package identity carries the caller forwarded by the upstream auth gateway.
// Tokens are verified before requests reach this service; only the resulting
// user id arrives here, as a request header. Role and account state are read
// from the user store on every request.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
)

const HeaderUserID = "X-User-ID"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Principal struct {
	UserID uuid.UUID
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Contact is what other components need to address and authorize a user.
type Contact struct {
	Name     string
	Email    string
	Role     string
	IsActive bool
}

// Directory resolves a user id to its stored details.
type Directory interface {
	Lookup(ctx context.Context, userID uuid.UUID) (Contact, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Middleware attaches the forwarded principal to the request context. A
// request without a user id passes through anonymously. A malformed id, an
// unknown user or a deactivated account is rejected with 401, and the role
// always comes from users.
func Middleware(users Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.FromString(raw)
			if err != nil || userID == uuid.Nil {
				log.Warn().Str("user_id", raw).Msg("Rejected request with malformed forwarded user id")
				writeError(w, http.StatusUnauthorized, "Invalid user identity")
				return
			}

			contact, err := users.Lookup(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					log.Warn().Stringer("user_id", userID).Msg("Rejected request for unknown user")
					writeError(w, http.StatusUnauthorized, "User not found")
					return
				}
				log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to resolve forwarded user")
				writeError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}
			if !contact.IsActive {
				log.Warn().Stringer("user_id", userID).Msg("Rejected request for deactivated user")
				writeError(w, http.StatusUnauthorized, "Your account has been deactivated")
				return
			}

			role := RoleUser
			if contact.Role == RoleAdmin {
				role = RoleAdmin
			}

			ctx := WithPrincipal(r.Context(), Principal{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a principal and 403 when the role differs.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if p.Role != role {
				log.Warn().Stringer("user_id", p.UserID).Str("role", p.Role).Str("required_role", role).Msg("Access denied")
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
