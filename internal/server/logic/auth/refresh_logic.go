package auth

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/jwtauth"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type RefreshLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRefreshLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RefreshLogic {
	return &RefreshLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Refresh implements base spec §4.7's rotation-without-immediate-revocation
// scheme: old refresh tokens stay valid until their own TTL expires.
func (l *RefreshLogic) Refresh(req *api.RefreshRequest) (*api.RefreshResult, error) {
	if req.RefreshToken == "" {
		return nil, apierr.Validation("refresh_token is required")
	}

	claims, err := l.svcCtx.JWT.Parse(req.RefreshToken, jwtauth.TokenRefresh)
	if err != nil {
		return nil, apierr.New(apierr.KindUnauthorized, 401, "invalid refresh token")
	}

	valid, err := l.svcCtx.RefreshTokens.Contains(l.ctx, claims.Subject, req.RefreshToken)
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	if !valid {
		// Revoked or never issued: this is the "refresh_token itself
		// invalid" signature the client's Token Lifecycle treats as terminal.
		return nil, apierr.New(apierr.KindUnauthorized, 400, "refresh token is no longer valid")
	}

	access, refresh, err := l.svcCtx.JWT.IssuePair(claims.Subject)
	if err != nil {
		return nil, apierr.Internal("failed to issue tokens")
	}
	if err := l.svcCtx.RefreshTokens.Add(l.ctx, claims.Subject, refresh, l.svcCtx.JWT.RefreshExpire); err != nil {
		l.Logger.Errorf("add rotated refresh token for %s: %v", claims.Subject, err)
	}

	return &api.RefreshResult{AccessToken: access, RefreshToken: refresh}, nil
}
