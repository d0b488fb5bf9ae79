// Package profile implements GET/PUT/DELETE /api/user/profile.
package profile

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type Logic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func New(ctx context.Context, svcCtx *svc.ServiceContext) *Logic {
	return &Logic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func toWire(p *repository.Profile) *api.UserProfile {
	return &api.UserProfile{
		UserID:     p.UserID,
		Username:   p.Username,
		Phone:      p.Phone,
		QQ:         p.QQ,
		WeChat:     p.WeChat,
		Bio:        p.Bio,
		AvatarData: p.AvatarData,
		AvatarMime: p.AvatarMime,
		ServerVer:  p.ServerVer,
		CreatedAt:  p.CreatedAt.Unix(),
		UpdatedAt:  p.UpdatedAt.Unix(),
	}
}

func (l *Logic) Get(userID string) (*api.UserProfile, error) {
	p, err := l.svcCtx.Store.Profiles().GetByUserID(l.ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apierr.NotFound("profile not found")
	}
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	return toWire(p), nil
}

func (l *Logic) Update(userID string, req *api.UpdateProfileRequest) (*api.UserProfile, error) {
	patch := repository.ProfilePatch{
		Username:   req.Username,
		Phone:      req.Phone,
		QQ:         req.QQ,
		WeChat:     req.WeChat,
		Bio:        req.Bio,
		AvatarData: req.AvatarData,
		AvatarMime: req.AvatarMime,
	}
	p, err := l.svcCtx.Store.Profiles().Merge(l.ctx, userID, patch, time.Now())
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	return toWire(p), nil
}

func (l *Logic) Delete(userID string) error {
	if err := l.svcCtx.Store.Profiles().SoftDelete(l.ctx, userID, time.Now()); err != nil {
		return apierr.Internal(err.Error())
	}
	return nil
}
