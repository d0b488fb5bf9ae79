package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func setupTestRefreshTokens(t *testing.T) RefreshTokens {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.New(mr.Addr())
	return NewRefreshTokens(client)
}

func TestRefreshTokensAddAndContains(t *testing.T) {
	rt := setupTestRefreshTokens(t)
	ctx := context.Background()

	ok, err := rt.Contains(ctx, "user1", "tok-a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, rt.Add(ctx, "user1", "tok-a", time.Hour))

	ok, err = rt.Contains(ctx, "user1", "tok-a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRefreshTokensRemove(t *testing.T) {
	rt := setupTestRefreshTokens(t)
	ctx := context.Background()

	require.NoError(t, rt.Add(ctx, "user1", "tok-a", time.Hour))
	require.NoError(t, rt.Remove(ctx, "user1", "tok-a"))

	ok, err := rt.Contains(ctx, "user1", "tok-a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRefreshTokensRemoveAll(t *testing.T) {
	rt := setupTestRefreshTokens(t)
	ctx := context.Background()

	require.NoError(t, rt.Add(ctx, "user1", "tok-a", time.Hour))
	require.NoError(t, rt.Add(ctx, "user1", "tok-b", time.Hour))
	require.NoError(t, rt.RemoveAll(ctx, "user1"))

	ok, err := rt.Contains(ctx, "user1", "tok-a")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = rt.Contains(ctx, "user1", "tok-b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRefreshTokensScopedPerUser(t *testing.T) {
	rt := setupTestRefreshTokens(t)
	ctx := context.Background()

	require.NoError(t, rt.Add(ctx, "user1", "tok-shared", time.Hour))

	ok, err := rt.Contains(ctx, "user2", "tok-shared")
	require.NoError(t, err)
	require.False(t, ok) // a token added under one user must not be visible under another
}
