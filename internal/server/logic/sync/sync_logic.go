// Package sync implements the Sync Endpoint (base spec §4.6): conflict
// detection, push application, and pull selection under one
// server-generated timestamp. Grounded on
// original_source/ssh-terminal-server/src/services/sync_service.rs's
// SyncService::sync, re-expressed in the teacher's logic-package idiom;
// unlike the Rust reference, session updates here strictly increment
// server_ver (base spec §4.6/§8 Testable Property 1 takes precedence
// where the two differ).
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

func secondsToTime(sec int64) time.Time { return time.Unix(sec, 0) }

func (l *Logic) Sync(userID string, req *api.SyncRequest) (*api.SyncResponse, error) {
	now := time.Now()

	var lastSyncAt *time.Time
	if req.LastSyncAt != nil {
		t := secondsToTime(*req.LastSyncAt)
		lastSyncAt = &t
	}

	resp := &api.SyncResponse{
		ServerTime:        now.Unix(),
		LastSyncAt:        now.Unix(),
		UpdatedSessionIDs: []string{},
		DeletedSessionIDs: []string{},
		ServerVersions:    map[string]int32{},
		SshSessions:       []api.SshSession{},
		Conflicts:         []api.ConflictInfo{},
	}

	err := l.svcCtx.Store.WithTx(l.ctx, func(tx repository.Store) error {
		sessions := tx.Sessions()
		profiles := tx.Profiles()

		conflictedSessions := map[string]bool{}

		// --- conflict detection (before any write) ---
		for _, item := range req.SshSessions {
			existing, err := sessions.GetByID(l.ctx, userID, item.ID)
			if err == repository.ErrNotFound {
				continue // no existing row: create path, never a conflict
			}
			if err != nil {
				return err
			}
			if lastSyncAt != nil && existing.UpdatedAt.After(*lastSyncAt) {
				conflictedSessions[item.ID] = true
				resp.Conflicts = append(resp.Conflicts, sessionConflict(&item, existing, "server updated since client's last sync"))
				continue
			}
			if item.ClientVer < existing.ServerVer {
				conflictedSessions[item.ID] = true
				resp.Conflicts = append(resp.Conflicts, sessionConflict(&item, existing, "client version is behind the server"))
			}
		}

		profileConflicted := false
		existingProfile, profileErr := profiles.GetByUserID(l.ctx, userID)
		if req.UserProfile != nil && profileErr == nil && lastSyncAt != nil && existingProfile.UpdatedAt.After(*lastSyncAt) {
			profileConflicted = true
			resp.Conflicts = append(resp.Conflicts, profileConflict(existingProfile))
		}

		// --- push: profile ---
		if req.UserProfile != nil && !profileConflicted {
			patch := repository.ProfilePatch{
				Username: req.UserProfile.Username, Phone: req.UserProfile.Phone,
				QQ: req.UserProfile.QQ, WeChat: req.UserProfile.WeChat, Bio: req.UserProfile.Bio,
				AvatarData: req.UserProfile.AvatarData, AvatarMime: req.UserProfile.AvatarMime,
			}
			if _, err := profiles.Merge(l.ctx, userID, patch, now); err != nil {
				l.Logger.Errorf("sync: merge profile for %s: %v", userID, err)
			}
		}

		// --- push: sessions (update existing / create new) ---
		for _, item := range req.SshSessions {
			if conflictedSessions[item.ID] {
				continue
			}
			existing, err := sessions.GetByID(l.ctx, userID, item.ID)
			if err == repository.ErrNotFound {
				row := sessionFromWire(&item, userID, now)
				if err := sessions.Create(l.ctx, row); err != nil {
					l.Logger.Errorf("sync: create session %s: %v", item.ID, err)
					continue
				}
				resp.UpdatedSessionIDs = append(resp.UpdatedSessionIDs, item.ID)
				resp.ServerVersions[item.ID] = row.ServerVer
				continue
			}
			if err != nil {
				return err
			}

			applySessionFields(existing, &item)
			newVer, err := sessions.Update(l.ctx, existing, now)
			if err != nil {
				l.Logger.Errorf("sync: update session %s: %v", item.ID, err)
				continue
			}
			resp.UpdatedSessionIDs = append(resp.UpdatedSessionIDs, item.ID)
			resp.ServerVersions[item.ID] = newVer
		}

		// --- push: deletes (idempotent) ---
		for _, id := range req.DeletedSessionIDs {
			if err := sessions.SoftDelete(l.ctx, userID, id, now); err != nil {
				l.Logger.Errorf("sync: soft delete session %s: %v", id, err)
				continue
			}
			resp.DeletedSessionIDs = append(resp.DeletedSessionIDs, id)
		}

		// --- pull: sessions ---
		rows, err := sessions.ListUpdatedSince(l.ctx, userID, lastSyncAt)
		if err != nil {
			return err
		}
		for i := range rows {
			resp.SshSessions = append(resp.SshSessions, sessionToWire(&rows[i]))
		}

		// --- pull: profile (analogous incremental rule) ---
		p, err := profiles.GetByUserID(l.ctx, userID)
		if err == nil {
			if lastSyncAt == nil || p.UpdatedAt.After(*lastSyncAt) {
				resp.UserProfile = profileToWire(p)
			}
		} else if err != repository.ErrNotFound {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, apierr.Internal(err.Error())
	}

	if len(resp.Conflicts) > 0 {
		resp.Message = fmt.Sprintf("%d conflict(s) require resolution", len(resp.Conflicts))
	}
	return resp, nil
}

func sessionFromWire(item *api.SshSession, userID string, at time.Time) *repository.SshSession {
	return &repository.SshSession{
		ID: item.ID, UserID: userID, Name: item.Name, Host: item.Host, Port: item.Port,
		Username: item.Username, GroupName: item.GroupName, TerminalType: item.TerminalType,
		Columns: item.Columns, Rows: item.Rows,
		AuthMethodEncrypted: item.AuthMethodEncrypted, AuthNonce: item.AuthNonce, AuthKeySalt: item.AuthKeySalt,
		ServerVer: 1, ClientVer: item.ClientVer, LastSyncedAt: &at,
		CreatedAt: at, UpdatedAt: at,
	}
}

func applySessionFields(existing *repository.SshSession, item *api.SshSession) {
	existing.Name = item.Name
	existing.Host = item.Host
	existing.Port = item.Port
	existing.Username = item.Username
	existing.GroupName = item.GroupName
	existing.TerminalType = item.TerminalType
	existing.Columns = item.Columns
	existing.Rows = item.Rows
	existing.AuthMethodEncrypted = item.AuthMethodEncrypted
	existing.AuthNonce = item.AuthNonce
	existing.AuthKeySalt = item.AuthKeySalt
	existing.ClientVer = item.ClientVer
}

func sessionToWire(s *repository.SshSession) api.SshSession {
	var lastSynced *int64
	if s.LastSyncedAt != nil {
		t := s.LastSyncedAt.Unix()
		lastSynced = &t
	}
	return api.SshSession{
		ID: s.ID, UserID: s.UserID, Name: s.Name, Host: s.Host, Port: s.Port, Username: s.Username,
		GroupName: s.GroupName, TerminalType: s.TerminalType, Columns: s.Columns, Rows: s.Rows,
		AuthMethodEncrypted: s.AuthMethodEncrypted, AuthNonce: s.AuthNonce, AuthKeySalt: s.AuthKeySalt,
		ServerVer: s.ServerVer, ClientVer: s.ClientVer, LastSyncedAt: lastSynced,
		CreatedAt: s.CreatedAt.Unix(), UpdatedAt: s.UpdatedAt.Unix(),
	}
}

func profileToWire(p *repository.Profile) *api.UserProfile {
	return &api.UserProfile{
		UserID: p.UserID, Username: p.Username, Phone: p.Phone, QQ: p.QQ, WeChat: p.WeChat,
		Bio: p.Bio, AvatarData: p.AvatarData, AvatarMime: p.AvatarMime, ServerVer: p.ServerVer,
		CreatedAt: p.CreatedAt.Unix(), UpdatedAt: p.UpdatedAt.Unix(),
	}
}

func sessionConflict(item *api.SshSession, existing *repository.SshSession, msg string) api.ConflictInfo {
	return api.ConflictInfo{
		ID: item.ID, EntityType: "ssh_session", ClientVer: item.ClientVer, ServerVer: existing.ServerVer,
		ClientData: item, ServerData: sessionToWire(existing), Message: msg,
	}
}

func profileConflict(existing *repository.Profile) api.ConflictInfo {
	return api.ConflictInfo{
		ID: existing.UserID, EntityType: "user_profile", ClientVer: 0, ServerVer: existing.ServerVer,
		ClientData: nil, ServerData: profileToWire(existing), Message: "server profile updated since client's last sync",
	}
}

// ResolveConflict implements POST /api/sync/resolve-conflict (base spec
// §4.6). Only ssh_session entities support KeepLocal/KeepBoth today;
// user_profile conflicts are resolved by re-syncing with KeepServer
// semantics, since the profile has no client-authoritative snapshot here.
func (l *Logic) ResolveConflict(userID string, req *api.ResolveConflictRequest) (*api.ResolveConflictResponse, error) {
	sessions := l.svcCtx.Store.Sessions()

	switch req.Strategy {
	case api.StrategyKeepServer:
		existing, err := sessions.GetByID(l.ctx, userID, req.ID)
		if err != nil {
			return nil, apierr.NotFound("conflicted record not found")
		}
		return &api.ResolveConflictResponse{ID: req.ID, ServerVer: existing.ServerVer}, nil

	case api.StrategyKeepLocal:
		if req.ClientData == nil {
			return nil, apierr.Validation("client_data is required for keep_local")
		}
		existing, err := sessions.GetByID(l.ctx, userID, req.ID)
		if err != nil {
			return nil, apierr.NotFound("conflicted record not found")
		}
		applySessionFields(existing, req.ClientData)
		newVer, err := sessions.Update(l.ctx, existing, time.Now())
		if err != nil {
			return nil, apierr.Internal(err.Error())
		}
		return &api.ResolveConflictResponse{ID: req.ID, ServerVer: newVer}, nil

	case api.StrategyKeepBoth:
		existing, err := sessions.GetByID(l.ctx, userID, req.ID)
		if err != nil {
			return nil, apierr.NotFound("conflicted record not found")
		}
		newID := fmt.Sprintf("%s-conflict-%s", req.ID, uuid.NewString())
		if err := sessions.Duplicate(l.ctx, existing, newID, time.Now()); err != nil {
			return nil, apierr.Internal(err.Error())
		}
		return &api.ResolveConflictResponse{ID: req.ID, NewID: newID, ServerVer: 1}, nil

	default:
		return nil, apierr.Validation("unknown conflict resolution strategy")
	}
}
