package auth

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/password"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type LoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginLogic {
	return &LoginLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Login implements base spec §4.7: InvalidCredentials is intentionally
// undifferentiated between "wrong password" and "no such user".
func (l *LoginLogic) Login(req *api.LoginRequest) (*api.LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apierr.Validation("email and password are required")
	}

	user, err := l.svcCtx.Store.Users().GetByEmail(l.ctx, req.Email)
	if err == repository.ErrNotFound {
		return nil, apierr.InvalidCredentials()
	}
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}

	ok, err := password.Verify(req.Password, user.PasswordHash)
	if err != nil {
		l.Logger.Errorf("verify password for %s: %v", user.ID, err)
		return nil, apierr.Internal("failed to verify password")
	}
	if !ok {
		return nil, apierr.InvalidCredentials()
	}

	access, refresh, err := l.svcCtx.JWT.IssuePair(user.ID)
	if err != nil {
		return nil, apierr.Internal("failed to issue tokens")
	}
	if err := l.svcCtx.RefreshTokens.Add(l.ctx, user.ID, refresh, l.svcCtx.JWT.RefreshExpire); err != nil {
		l.Logger.Errorf("add refresh token for %s: %v", user.ID, err)
	}

	return &api.LoginResult{
		DeviceID:     user.DeviceID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
