// Package sync implements the client-side Sync Engine (base spec §3): it
// pushes this machine's dirty sessions, pulls whatever the server has
// that is newer, and surfaces conflicts for the caller to resolve.
// Grounded on original_source/src-tauri/src/services/sync_service.rs's
// full_sync/apply_pull_data/apply_push_result, minus its SyncOptions
// split (SyncSessions/SyncProfile/SyncAll/PullOnly collapse into one
// Run call here — the base spec's /api/sync endpoint already syncs
// profile and sessions together in a single round trip).
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/account"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/catalog"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/httpclient"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/zeromicro/go-zero/core/logx"
)

// Report mirrors the original's SyncReport: a summary a UI layer can show
// after a sync run, success or not.
type Report struct {
	PushedSessions int
	PulledSessions int
	Conflicts      []api.ConflictInfo
	Message        string
}

// Engine owns one account's sync loop. It is safe to call Run
// concurrently with itself only in the sense that the underlying
// catalog.Store serializes writes — callers driving both a manual "sync
// now" and the cron schedule should still expect the second call to
// simply redo a no-op push/pull if the first already cleared the dirty
// rows.
type Engine struct {
	store    *catalog.Store
	http     *httpclient.Client
	tokens   *token.Manager
	registry *account.Registry
	cron     *cron.Cron
}

func New(store *catalog.Store, http *httpclient.Client, tokens *token.Manager, registry *account.Registry) *Engine {
	return &Engine{store: store, http: http, tokens: tokens, registry: registry}
}

// Run performs one push-then-pull round trip for the current account,
// matching full_sync's nine numbered steps: load the account, read its
// last_sync_at, collect dirty/deleted sessions, call the unified sync
// endpoint, apply the pull, clear dirty markers for what was
// acknowledged, and record the new last_sync_at.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	acct, err := e.registry.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	dirty, err := e.store.ListDirtySessions(ctx, acct.UserID)
	if err != nil {
		return nil, fmt.Errorf("sync: list dirty sessions: %w", err)
	}
	deletedIDs, err := e.store.ListDirtyDeletedSessionIDs(ctx, acct.UserID)
	if err != nil {
		return nil, fmt.Errorf("sync: list deleted sessions: %w", err)
	}

	req := &api.SyncRequest{
		LastSyncAt:        acct.LastSyncAt,
		DeviceID:          acct.DeviceID,
		SshSessions:       toWireSessions(dirty),
		DeletedSessionIDs: deletedIDs,
	}

	resp, err := e.http.Sync(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	pulled, err := e.applyPull(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("sync: apply pull: %w", err)
	}
	if err := e.applyPush(ctx, dirty, deletedIDs, resp); err != nil {
		return nil, fmt.Errorf("sync: apply push: %w", err)
	}

	if err := e.store.UpdateLastSyncAt(ctx, acct.UserID, resp.LastSyncAt); err != nil {
		return nil, fmt.Errorf("sync: update last_sync_at: %w", err)
	}

	return &Report{
		PushedSessions: len(resp.UpdatedSessionIDs),
		PulledSessions: pulled,
		Conflicts:      resp.Conflicts,
		Message:        resp.Message,
	}, nil
}

// applyPull writes every server-pushed session into the catalog, skipping
// any whose local server_ver is already current or ahead — the original's
// "local version is newer or same, skip" guard against clobbering a row
// the local sync hasn't pushed yet. UpsertFromServer itself preserves
// is_dirty/is_deleted/deleted_at on a conflicting row (base spec §4.5),
// so a session surfaced as a conflict stays dirty here until the caller
// resolves it.
func (e *Engine) applyPull(ctx context.Context, resp *api.SyncResponse) (int, error) {
	applied := 0
	for i := range resp.SshSessions {
		remote := &resp.SshSessions[i]
		local, err := e.store.FindSessionByID(ctx, remote.ID)
		if err == nil && local.ServerVer >= remote.ServerVer {
			continue
		}
		if err != nil && err != catalog.ErrNotFound {
			return applied, err
		}
		if err := e.store.UpsertFromServer(ctx, fromWireSession(remote)); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// applyPush clears the dirty flag on everything the server just
// acknowledged: updated sessions get their new server_ver recorded,
// confirmed deletes are purged outright, matching clear_dirty_marker and
// the original's decision to drop tombstones once the server agrees they
// are gone.
func (e *Engine) applyPush(ctx context.Context, pushed []catalog.Session, deletedIDs []string, resp *api.SyncResponse) error {
	for _, sess := range pushed {
		ver, ok := resp.ServerVersions[sess.ID]
		if !ok {
			continue // surfaced as a conflict instead — leave dirty for the caller to resolve
		}
		if err := e.store.ClearDirty(ctx, sess.ID, ver, resp.LastSyncAt); err != nil {
			return err
		}
	}
	confirmed := make(map[string]bool, len(resp.DeletedSessionIDs))
	for _, id := range resp.DeletedSessionIDs {
		confirmed[id] = true
	}
	for _, id := range deletedIDs {
		if confirmed[id] && !containsConflict(resp.Conflicts, id) {
			if err := e.store.PurgeDeletedSession(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsConflict(conflicts []api.ConflictInfo, id string) bool {
	for _, c := range conflicts {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ResolveConflict forwards a caller's chosen strategy to the server and,
// when the response carries no new id (keep_server or keep_local), clears
// the local dirty flag and records the server_ver the server reports, so
// the next Run doesn't re-push the same row forever. A keep_both
// resolution leaves the local row as it is.
func (e *Engine) ResolveConflict(ctx context.Context, req *api.ResolveConflictRequest) (*api.ResolveConflictResponse, error) {
	resp, err := e.http.ResolveConflict(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.NewID == "" {
		if err := e.store.ClearDirty(ctx, req.ID, resp.ServerVer, time.Now().Unix()); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// StartSchedule runs Run on a fixed interval via robfig/cron, the way the
// teacher schedules its own background jobs — one named entry, logged
// start to finish, errors swallowed into a log line rather than killing
// the scheduler (a transient network blip should not end the client's
// background sync forever).
func (e *Engine) StartSchedule(ctx context.Context, interval time.Duration) error {
	e.cron = cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	_, err := e.cron.AddFunc(spec, func() {
		report, err := e.Run(ctx)
		if err != nil {
			logx.Errorf("background sync failed: %v", err)
			return
		}
		logx.Infof("background sync: pushed=%d pulled=%d conflicts=%d",
			report.PushedSessions, report.PulledSessions, len(report.Conflicts))
	})
	if err != nil {
		return fmt.Errorf("schedule background sync: %w", err)
	}
	e.cron.Start()
	return nil
}

func (e *Engine) StopSchedule() {
	if e.cron != nil {
		e.cron.Stop()
	}
}

func toWireSessions(rows []catalog.Session) []api.SshSession {
	out := make([]api.SshSession, len(rows))
	for i, s := range rows {
		out[i] = api.SshSession{
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
			LastSyncedAt:        s.LastSyncedAt,
			CreatedAt:           s.CreatedAt,
			UpdatedAt:           s.UpdatedAt,
			DeletedAt:           s.DeletedAt,
		}
	}
	return out
}

func fromWireSession(s *api.SshSession) *catalog.Session {
	return &catalog.Session{
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
		LastSyncedAt:        s.LastSyncedAt,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
