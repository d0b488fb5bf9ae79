package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/password"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

type RegisterLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegisterLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegisterLogic {
	return &RegisterLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

const maxUserIDAttempts = 10

// generateUserID mints a random opaque 10-digit user_id and retries on
// collision with a non-deleted row, per base spec §4.7 step 3.
func (l *RegisterLogic) generateUserID() (string, error) {
	users := l.svcCtx.Store.Users()
	for i := 0; i < maxUserIDAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
		if err != nil {
			return "", err
		}
		id := fmt.Sprintf("%010d", n.Int64()+1_000_000_000)
		if _, err := users.GetByID(l.ctx, id); err == repository.ErrNotFound {
			return id, nil
		}
	}
	return "", apierr.Internal("could not allocate a unique user id")
}

func (l *RegisterLogic) Register(req *api.RegisterRequest) (*api.RegisterResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apierr.Validation("email and password are required")
	}

	exists, err := l.svcCtx.Store.Users().EmailExists(l.ctx, req.Email)
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	if exists {
		return nil, apierr.EmailExists()
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, apierr.Internal("failed to hash password")
	}

	userID, err := l.generateUserID()
	if err != nil {
		return nil, err
	}
	deviceID := uuid.NewString()
	now := time.Now()

	user := &repository.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: hash,
		DeviceID:     deviceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.svcCtx.Store.Users().Create(l.ctx, user); err != nil {
		return nil, apierr.Internal(err.Error())
	}

	profile := &repository.Profile{
		UserID:    userID,
		ServerVer: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.svcCtx.Store.Profiles().Create(l.ctx, profile); err != nil {
		l.Logger.Errorf("create empty profile for %s: %v", userID, err)
	}

	access, refresh, err := l.svcCtx.JWT.IssuePair(userID)
	if err != nil {
		return nil, apierr.Internal("failed to issue tokens")
	}
	if err := l.svcCtx.RefreshTokens.Add(l.ctx, userID, refresh, l.svcCtx.JWT.RefreshExpire); err != nil {
		l.Logger.Errorf("add refresh token for %s: %v", userID, err)
	}

	return &api.RegisterResult{
		UserID:       userID,
		Email:        req.Email,
		CreatedAt:    now.Unix(),
		DeviceID:     deviceID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
