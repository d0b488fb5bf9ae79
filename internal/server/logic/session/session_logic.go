// Package session implements the CRUD surface of /api/ssh/sessions. The
// heavier conflict-aware push/pull path lives in package sync; this
// package covers direct single-record reads and writes outside a sync
// round (base spec §6 external interface table).
package session

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

func toWire(s *repository.SshSession) api.SshSession {
	var lastSynced *int64
	if s.LastSyncedAt != nil {
		t := s.LastSyncedAt.Unix()
		lastSynced = &t
	}
	var deletedAt *int64
	if s.DeletedAt != nil {
		t := s.DeletedAt.Unix()
		deletedAt = &t
	}
	return api.SshSession{
		ID:                  s.ID,
		UserID:              s.UserID,
		Name:                s.Name,
		Host:                s.Host,
		Port:                s.Port,
		Username:            s.Username,
		GroupName:           s.GroupName,
		TerminalType:        s.TerminalType,
		Columns:             s.Columns,
		Rows:                s.Rows,
		AuthMethodEncrypted: s.AuthMethodEncrypted,
		AuthNonce:           s.AuthNonce,
		AuthKeySalt:         s.AuthKeySalt,
		ServerVer:           s.ServerVer,
		ClientVer:           s.ClientVer,
		LastSyncedAt:        lastSynced,
		CreatedAt:           s.CreatedAt.Unix(),
		UpdatedAt:           s.UpdatedAt.Unix(),
		DeletedAt:           deletedAt,
	}
}

// List returns only non-deleted sessions: a soft-deleted record must
// never appear here (base spec Testable Property 8).
func (l *Logic) List(userID string) ([]api.SshSession, error) {
	rows, err := l.svcCtx.Store.Sessions().ListByUser(l.ctx, userID)
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	out := make([]api.SshSession, 0, len(rows))
	for i := range rows {
		out = append(out, toWire(&rows[i]))
	}
	return out, nil
}

func (l *Logic) Get(userID, id string) (*api.SshSession, error) {
	s, err := l.svcCtx.Store.Sessions().GetByID(l.ctx, userID, id)
	if err == repository.ErrNotFound || (err == nil && s.DeletedAt != nil) {
		return nil, apierr.NotFound("session not found")
	}
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	w := toWire(s)
	return &w, nil
}

func (l *Logic) Create(userID string, req *api.CreateSshSessionRequest) (*api.SshSession, error) {
	if req.ID == "" || req.Name == "" || req.Host == "" {
		return nil, apierr.Validation("id, name, and host are required")
	}
	now := time.Now()
	s := &repository.SshSession{
		ID:                  req.ID,
		UserID:              userID,
		Name:                req.Name,
		Host:                req.Host,
		Port:                req.Port,
		Username:            req.Username,
		GroupName:           req.GroupName,
		TerminalType:        req.TerminalType,
		Columns:             req.Columns,
		Rows:                req.Rows,
		AuthMethodEncrypted: req.AuthMethodEncrypted,
		AuthNonce:           req.AuthNonce,
		AuthKeySalt:         req.AuthKeySalt,
		ServerVer:           1,
		ClientVer:           req.ClientVer,
		LastSyncedAt:        &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := l.svcCtx.Store.Sessions().Create(l.ctx, s); err != nil {
		return nil, apierr.Internal(err.Error())
	}
	w := toWire(s)
	return &w, nil
}

func (l *Logic) Update(userID, id string, req *api.UpdateSshSessionRequest) (*api.SshSession, error) {
	existing, err := l.svcCtx.Store.Sessions().GetByID(l.ctx, userID, id)
	if err == repository.ErrNotFound {
		return nil, apierr.NotFound("session not found")
	}
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}

	existing.Name = req.Name
	existing.Host = req.Host
	existing.Port = req.Port
	existing.Username = req.Username
	existing.GroupName = req.GroupName
	existing.TerminalType = req.TerminalType
	existing.Columns = req.Columns
	existing.Rows = req.Rows
	existing.AuthMethodEncrypted = req.AuthMethodEncrypted
	existing.AuthNonce = req.AuthNonce
	existing.AuthKeySalt = req.AuthKeySalt
	existing.ClientVer = req.ClientVer

	newVer, err := l.svcCtx.Store.Sessions().Update(l.ctx, existing, time.Now())
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}
	existing.ServerVer = newVer
	w := toWire(existing)
	return &w, nil
}

func (l *Logic) Delete(userID, id string) error {
	if err := l.svcCtx.Store.Sessions().SoftDelete(l.ctx, userID, id, time.Now()); err != nil {
		return apierr.Internal(err.Error())
	}
	return nil
}
