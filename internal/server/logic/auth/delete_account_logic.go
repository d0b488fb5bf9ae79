package auth

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

// DeleteAccountLogic implements the supplemental DELETE /auth/account
// operation (SPEC_FULL §4.11, carried over from the Rust original's
// delete_account handler): soft-delete the user row and drop every
// refresh token of theirs from the KV set.
type DeleteAccountLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteAccountLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteAccountLogic {
	return &DeleteAccountLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteAccountLogic) DeleteAccount(userID string) error {
	if err := l.svcCtx.Store.Users().SoftDelete(l.ctx, userID, time.Now()); err != nil {
		return apierr.Internal(err.Error())
	}
	if err := l.svcCtx.RefreshTokens.RemoveAll(l.ctx, userID); err != nil {
		l.Logger.Errorf("remove refresh tokens for deleted user %s: %v", userID, err)
	}
	return nil
}
