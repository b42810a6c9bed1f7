// Package auth attaches authenticated users to incoming requests.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/calyx-health/triage.report/internal/db"
	"github.com/calyx-health/triage.report/internal/httputil"
)

type contextKey struct{}

var userKey contextKey

// UserSource resolves bearer tokens to users. *db.DB satisfies it.
type UserSource interface {
	UserByToken(token string) (*db.User, error)
}

// RequireUser wraps a handler so it only runs for requests carrying a valid
// `Authorization: Bearer <token>` header. The resolved user is stored in the
// request context; fetch it with UserFromContext.
func RequireUser(source UserSource, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httputil.Unauthorized(w, "missing bearer token")
			return
		}

		user, err := source.UserByToken(token)
		if err != nil {
			httputil.Unauthorized(w, "invalid or expired token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// UserFromContext returns the user attached by RequireUser, or nil when the
// request was not authenticated.
func UserFromContext(ctx context.Context) *db.User {
	user, _ := ctx.Value(userKey).(*db.User)
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
