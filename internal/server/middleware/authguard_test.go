package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/jwtauth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
)

func newTestGuard(t *testing.T) (*AuthGuard, *jwtauth.Manager, repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	jwt := jwtauth.NewManager("test-secret", 15*time.Minute, 30*24*time.Hour)
	return NewAuthGuard(jwt, store.Users()), jwt, store
}

func passthrough() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		w.Header().Set("X-User-ID", id)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthGuardRejectsMissingBearer(t *testing.T) {
	guard, _, _ := newTestGuard(t)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	rec := httptest.NewRecorder()
	guard.Handle(passthrough())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGuardRejectsRefreshTokenAsAccessToken(t *testing.T) {
	guard, jwt, store := newTestGuard(t)
	require.NoError(t, store.Users().Create(context.Background(), &repository.User{ID: "u1", Email: "a@b.com", PasswordHash: "x"}))

	_, refresh, err := jwt.IssuePair("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	guard.Handle(passthrough())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGuardRejectsSoftDeletedUser(t *testing.T) {
	guard, jwt, store := newTestGuard(t)
	require.NoError(t, store.Users().Create(context.Background(), &repository.User{ID: "u1", Email: "a@b.com", PasswordHash: "x"}))
	require.NoError(t, store.Users().SoftDelete(context.Background(), "u1", time.Now()))

	access, _, err := jwt.IssuePair("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	guard.Handle(passthrough())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGuardInjectsUserIDOnSuccess(t *testing.T) {
	guard, jwt, store := newTestGuard(t)
	require.NoError(t, store.Users().Create(context.Background(), &repository.User{ID: "u1", Email: "a@b.com", PasswordHash: "x"}))

	access, _, err := jwt.IssuePair("u1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	guard.Handle(passthrough())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", rec.Header().Get("X-User-ID"))
}
