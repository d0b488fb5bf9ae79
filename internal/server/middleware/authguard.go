// Package middleware implements the Auth Guard (base spec §4.8): parse
// the bearer token, validate it, reject soft-deleted subjects, inject
// user_id into the request context. Shaped as a go-zero rest.Middleware,
// grounded on the teacher's shared/middleware.JWTMiddleware token
// validation but wired as HTTP middleware rather than a bare helper type.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/jwtauth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type userIDKey struct{}

// UserIDFromContext extracts the user_id the Auth Guard injected.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok
}

type AuthGuard struct {
	JWT   *jwtauth.Manager
	Users repository.Users
}

func NewAuthGuard(jwt *jwtauth.Manager, users repository.Users) *AuthGuard {
	return &AuthGuard{JWT: jwt, Users: users}
}

func extractBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// Handle wraps next, rejecting the request with 401 unless the bearer
// token is valid and its subject is a non-deleted user.
func (g *AuthGuard) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearer(r.Header.Get("Authorization"))
		if !ok {
			api.WriteErrCtx(r.Context(), w, apierr.Unauthorized("missing or malformed bearer token"))
			return
		}

		claims, err := g.JWT.Parse(token, jwtauth.TokenAccess)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Unauthorized("invalid or expired access token"))
			return
		}

		user, err := g.Users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Unauthorized("user not found"))
			return
		}
		if user.DeletedAt != nil {
			api.WriteErrCtx(r.Context(), w, apierr.Unauthorized("account deleted"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, user.ID)
		next(w, r.WithContext(ctx))
	}
}
