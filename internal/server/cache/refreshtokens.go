// Package cache implements the refresh-token set: a per-user collection
// of currently valid refresh tokens with a TTL equal to the refresh-token
// lifetime (base spec §3 "Refresh-token set"). Grounded on the teacher's
// domain/cache.Cache, which drives the same Sadd/Srem/Sismember/Setex
// shape against go-zero's redis.Redis wrapper.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

const refreshTokenSetPrefix = "auth:refresh_tokens:"

type RefreshTokens interface {
	Add(ctx context.Context, userID, token string, ttl time.Duration) error
	Contains(ctx context.Context, userID, token string) (bool, error)
	Remove(ctx context.Context, userID, token string) error
	RemoveAll(ctx context.Context, userID string) error
}

type refreshTokens struct {
	client *redis.Redis
}

func NewRefreshTokens(client *redis.Redis) RefreshTokens {
	return &refreshTokens{client: client}
}

func key(userID string) string {
	return refreshTokenSetPrefix + userID
}

// Add adds token to the user's set and (re)applies the set's TTL so that
// rotation extends, rather than resets, individual token lifetimes
// relative to when each was minted — members expire with the whole set,
// which is the simplest acceptable approximation of per-token TTL given
// a plain Redis set.
func (r *refreshTokens) Add(ctx context.Context, userID, token string, ttl time.Duration) error {
	k := key(userID)
	if _, err := r.client.SaddCtx(ctx, k, token); err != nil {
		return fmt.Errorf("refresh token set add: %w", err)
	}
	if err := r.client.ExpireCtx(ctx, k, int(ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("refresh token set expire: %v", err)
		return err
	}
	return nil
}

func (r *refreshTokens) Contains(ctx context.Context, userID, token string) (bool, error) {
	ok, err := r.client.SismemberCtx(ctx, key(userID), token)
	if err != nil {
		return false, fmt.Errorf("refresh token set member check: %w", err)
	}
	return ok, nil
}

func (r *refreshTokens) Remove(ctx context.Context, userID, token string) error {
	_, err := r.client.SremCtx(ctx, key(userID), token)
	return err
}

func (r *refreshTokens) RemoveAll(ctx context.Context, userID string) error {
	_, err := r.client.DelCtx(ctx, key(userID))
	return err
}
