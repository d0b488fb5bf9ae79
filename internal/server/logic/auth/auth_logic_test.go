package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/cache"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/jwtauth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

func newTestServiceContext(t *testing.T) *svc.ServiceContext {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return &svc.ServiceContext{
		Store:         repository.NewMemoryStore(),
		RefreshTokens: cache.NewRefreshTokens(redis.New(mr.Addr())),
		JWT:           jwtauth.NewManager("test-secret", 15*time.Minute, 30*24*time.Hour),
	}
}

func TestRegisterCreatesUserAndIssuesTokens(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	resp, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "a@example.com", Password: "hunter22"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.UserID)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	ok, err := svcCtx.RefreshTokens.Contains(ctx, resp.UserID, resp.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	_, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "dup@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "dup@example.com", Password: "other"})
	require.Error(t, err)
	apiErr := apierr.As(err)
	require.Equal(t, apierr.KindEmailExists, apiErr.Kind)
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	_, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "b@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	resp, err := NewLoginLogic(ctx, svcCtx).Login(&api.LoginRequest{Email: "b@example.com", Password: "correcthorse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
}

func TestLoginFailsUndifferentiatedForBadPasswordOrMissingUser(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	_, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "c@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	_, err1 := NewLoginLogic(ctx, svcCtx).Login(&api.LoginRequest{Email: "c@example.com", Password: "wrong"})
	_, err2 := NewLoginLogic(ctx, svcCtx).Login(&api.LoginRequest{Email: "nosuchuser@example.com", Password: "wrong"})

	require.Equal(t, apierr.As(err1).Kind, apierr.As(err2).Kind)
	require.Equal(t, apierr.KindInvalidCredentials, apierr.As(err1).Kind)
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	reg, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "d@example.com", Password: "hunter22"})
	require.NoError(t, err)

	resp, err := NewRefreshLogic(ctx, svcCtx).Refresh(&api.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEqual(t, reg.RefreshToken, resp.RefreshToken)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	reg, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "e@example.com", Password: "hunter22"})
	require.NoError(t, err)
	require.NoError(t, svcCtx.RefreshTokens.RemoveAll(ctx, reg.UserID))

	_, err = NewRefreshLogic(ctx, svcCtx).Refresh(&api.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.Error(t, err)
	require.Equal(t, 400, apierr.As(err).Status)
}

func TestDeleteAccountRevokesAllRefreshTokens(t *testing.T) {
	svcCtx := newTestServiceContext(t)
	ctx := context.Background()

	reg, err := NewRegisterLogic(ctx, svcCtx).Register(&api.RegisterRequest{Email: "f@example.com", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, NewDeleteAccountLogic(ctx, svcCtx).DeleteAccount(reg.UserID))

	ok, err := svcCtx.RefreshTokens.Contains(ctx, reg.UserID, reg.RefreshToken)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svcCtx.Store.Users().GetByID(ctx, reg.UserID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
