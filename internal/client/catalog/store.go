package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound mirrors the server repository's sentinel so callers in
// package sync can branch on it the same way on both sides.
var ErrNotFound = errors.New("catalog: record not found")

// Store is the Local Catalog Store: one SQLite file per machine, guarded
// by an OS-level file lock so two processes never open it writably at
// once (base spec §3 "single-writer-per-process").
type Store struct {
	db   *sqlx.DB
	lock *flock.Flock
}

// Open applies Schema and acquires an exclusive file lock alongside the
// database file. Close releases the lock.
func Open(path string) (*Store, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("catalog at %s is already open by another process", filepath.Base(path))
	}

	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver: serialize writers through one connection

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Store{db: db, lock: lock}, nil
}

func (s *Store) Close() error {
	dbErr := s.db.Close()
	lockErr := s.lock.Unlock()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

// --- accounts ---

func (s *Store) UpsertAccount(ctx context.Context, a *Account) error {
	const q = `INSERT INTO accounts
		(user_id, server_url, email, password_encrypted, password_nonce, access_token_encrypted,
		 access_token_nonce, refresh_token_encrypted, refresh_token_nonce, token_expires_at, device_id,
		 last_sync_at, is_current, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, server_url) DO UPDATE SET
			email = excluded.email,
			password_encrypted = excluded.password_encrypted,
			password_nonce = excluded.password_nonce,
			access_token_encrypted = excluded.access_token_encrypted,
			access_token_nonce = excluded.access_token_nonce,
			refresh_token_encrypted = excluded.refresh_token_encrypted,
			refresh_token_nonce = excluded.refresh_token_nonce,
			token_expires_at = excluded.token_expires_at,
			device_id = excluded.device_id,
			updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q, a.UserID, a.ServerURL, a.Email, a.PasswordEncrypted, a.PasswordNonce,
		a.AccessTokenEncrypted, a.AccessTokenNonce, a.RefreshTokenEncrypted, a.RefreshTokenNonce,
		a.TokenExpiresAt, a.DeviceID, a.LastSyncAt, a.IsCurrent, a.CreatedAt, a.UpdatedAt)
	return err
}

// UpdateAccountTokens persists a refreshed device-bound token pair,
// matching the original's pattern of writing the new tokens back to
// disk right after a successful /auth/refresh so the next AutoLogin
// doesn't hand out a token the server already rotated away.
func (s *Store) UpdateAccountTokens(ctx context.Context, userID, accessTokenEncrypted, accessTokenNonce string, refreshTokenEncrypted, refreshTokenNonce *string, expiresAt *int64, at time.Time) error {
	const q = `UPDATE accounts SET access_token_encrypted = ?, access_token_nonce = ?,
		refresh_token_encrypted = ?, refresh_token_nonce = ?,
		token_expires_at = ?, updated_at = ? WHERE user_id = ?`
	_, err := s.db.ExecContext(ctx, q, accessTokenEncrypted, accessTokenNonce, refreshTokenEncrypted,
		refreshTokenNonce, expiresAt, at.Unix(), userID)
	return err
}

func (s *Store) UpdateLastSyncAt(ctx context.Context, userID string, at int64) error {
	const q = `UPDATE accounts SET last_sync_at = ?, updated_at = ? WHERE user_id = ?`
	_, err := s.db.ExecContext(ctx, q, at, at, userID)
	return err
}

func (s *Store) FindCurrentAccount(ctx context.Context) (*Account, error) {
	const q = `SELECT * FROM accounts WHERE is_current = 1 LIMIT 1`
	var a Account
	if err := s.db.GetContext(ctx, &a, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	const q = `SELECT * FROM accounts ORDER BY created_at`
	var rows []Account
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// SwitchAccount clears is_current on every row, then sets it on userID's,
// matching the original's switch_account semantics of "exactly one
// current account at a time".
func (s *Store) SwitchAccount(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE accounts SET is_current = 0`); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE accounts SET is_current = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ClearCurrentAccount implements logout: drop the is_current marker
// without deleting any account data.
func (s *Store) ClearCurrentAccount(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE accounts SET is_current = 0`)
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID)
	return err
}

// --- sessions ---

const selectSessionCols = `id, user_id, name, host, port, username, group_name, terminal_type, columns, rows,
	auth_method_encrypted, auth_nonce, auth_key_salt, server_ver, client_ver, is_dirty, last_synced_at,
	is_deleted, deleted_at, created_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	const q = `INSERT INTO ssh_sessions (
		id, user_id, name, host, port, username, group_name,
		terminal_type, columns, rows,
		auth_method_encrypted, auth_nonce, auth_key_salt,
		server_ver, client_ver, is_dirty, last_synced_at,
		is_deleted, deleted_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.Name, sess.Host, sess.Port, sess.Username,
		sess.GroupName, sess.TerminalType, sess.Columns, sess.Rows, sess.AuthMethodEncrypted, sess.AuthNonce,
		sess.AuthKeySalt, sess.ServerVer, sess.ClientVer, sess.IsDirty, sess.LastSyncedAt, sess.IsDeleted,
		sess.DeletedAt, sess.CreatedAt, sess.UpdatedAt)
	return err
}

func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	const q = `UPDATE ssh_sessions SET
		name = ?, host = ?, port = ?, username = ?, group_name = ?,
		terminal_type = ?, columns = ?, rows = ?,
		auth_method_encrypted = ?, auth_nonce = ?, auth_key_salt = ?,
		client_ver = ?, is_dirty = 1, updated_at = ?
		WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, sess.Name, sess.Host, sess.Port, sess.Username, sess.GroupName,
		sess.TerminalType, sess.Columns, sess.Rows, sess.AuthMethodEncrypted, sess.AuthNonce, sess.AuthKeySalt,
		sess.ClientVer, sess.UpdatedAt, sess.ID)
	return err
}

// SoftDeleteSession marks a row for deletion and dirty for push, without
// removing it locally until the server confirms the delete (base spec
// §3's Sync Engine "queued ops" model).
func (s *Store) SoftDeleteSession(ctx context.Context, id string, at int64) error {
	const q = `UPDATE ssh_sessions SET is_deleted = 1, is_dirty = 1, deleted_at = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, at, at, id)
	return err
}

func (s *Store) FindSessionByID(ctx context.Context, id string) (*Session, error) {
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE id = ?`
	var sess Session
	if err := s.db.GetContext(ctx, &sess, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID string) ([]Session, error) {
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE user_id = ? AND is_deleted = 0 ORDER BY created_at DESC`
	var rows []Session
	if err := s.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDirtySessions returns the non-deleted rows the Sync Engine still
// needs to push.
func (s *Store) ListDirtySessions(ctx context.Context, userID string) ([]Session, error) {
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE user_id = ? AND is_dirty = 1 AND is_deleted = 0`
	var rows []Session
	if err := s.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDirtyDeletedSessionIDs returns tombstoned rows not yet confirmed
// deleted on the server.
func (s *Store) ListDirtyDeletedSessionIDs(ctx context.Context, userID string) ([]string, error) {
	q := `SELECT id FROM ssh_sessions WHERE user_id = ? AND is_deleted = 1 AND is_dirty = 1`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, q, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

// ClearDirty is called after a session's push is acknowledged by the
// server; it clears is_dirty and records the sync timestamp, like the
// original's clear_dirty_marker, and in the same statement also writes
// the server_ver taken from the server's response.
func (s *Store) ClearDirty(ctx context.Context, id string, serverVer int32, syncTime int64) error {
	const q = `UPDATE ssh_sessions SET is_dirty = 0, server_ver = ?, last_synced_at = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, serverVer, syncTime, id)
	return err
}

// PurgeDeletedSession removes a tombstoned row once the server has
// acknowledged the delete; there is nothing left worth caching locally.
func (s *Store) PurgeDeletedSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ssh_sessions WHERE id = ?`, id)
	return err
}

// UpsertFromServer writes a server-pulled row's synced fields over a
// local one, deliberately leaving is_dirty/is_deleted/deleted_at out of
// the DO UPDATE SET list so a conflicting update preserves whatever
// those three columns already held (base spec §4.5: "overwrite the
// synced fields; preserve transient local flags is_dirty, is_deleted,
// deleted_at"). A brand-new row (no local conflict) has no local state
// to preserve, so the VALUES clause seeds it clean: not dirty, not
// deleted.
func (s *Store) UpsertFromServer(ctx context.Context, sess *Session) error {
	const q = `INSERT INTO ssh_sessions (
		id, user_id, name, host, port, username, group_name,
		terminal_type, columns, rows,
		auth_method_encrypted, auth_nonce, auth_key_salt,
		server_ver, client_ver, is_dirty, last_synced_at,
		is_deleted, deleted_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 0, NULL, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name, host = excluded.host, port = excluded.port, username = excluded.username,
		group_name = excluded.group_name, terminal_type = excluded.terminal_type,
		columns = excluded.columns, rows = excluded.rows,
		auth_method_encrypted = excluded.auth_method_encrypted, auth_nonce = excluded.auth_nonce,
		auth_key_salt = excluded.auth_key_salt, server_ver = excluded.server_ver,
		client_ver = excluded.client_ver, last_synced_at = excluded.last_synced_at,
		updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q, sess.ID, sess.UserID, sess.Name, sess.Host, sess.Port, sess.Username,
		sess.GroupName, sess.TerminalType, sess.Columns, sess.Rows, sess.AuthMethodEncrypted, sess.AuthNonce,
		sess.AuthKeySalt, sess.ServerVer, sess.ClientVer, sess.LastSyncedAt, sess.CreatedAt, sess.UpdatedAt)
	return err
}
