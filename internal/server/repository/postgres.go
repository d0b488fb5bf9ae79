package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"
)

// sqlExt is satisfied by both *sqlx.DB and *sqlx.Tx, so every method
// below runs identically whether called standalone or inside the Sync
// Endpoint's single transaction.
type sqlExt interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

type pgStore struct {
	db *sqlx.DB
	x  sqlExt // either db or an in-flight tx; db.WithTx rebinds this
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &pgStore{db: db, x: db}
}

func (s *pgStore) Users() Users       { return &pgUsers{x: s.x} }
func (s *pgStore) Profiles() Profiles { return &pgProfiles{x: s.x} }
func (s *pgStore) Sessions() Sessions { return &pgSessions{x: s.x} }

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	var err2 error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err2 != nil {
			tx.Rollback()
		} else {
			err2 = tx.Commit()
		}
	}()

	err2 = fn(&pgStore{db: s.db, x: tx})
	return err2
}

// --- users ---

type pgUsers struct{ x sqlExt }

func (r *pgUsers) Create(ctx context.Context, u *User) error {
	const q = `INSERT INTO users (id, email, password_hash, device_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.x.ExecContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.DeviceID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *pgUsers) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT id, email, password_hash, device_id, created_at, updated_at, deleted_at
		FROM users WHERE email = $1 AND deleted_at IS NULL`
	var u User
	if err := r.x.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *pgUsers) GetByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT id, email, password_hash, device_id, created_at, updated_at, deleted_at
		FROM users WHERE id = $1 AND deleted_at IS NULL`
	var u User
	if err := r.x.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

func (r *pgUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`
	var exists bool
	if err := r.x.GetContext(ctx, &exists, q, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *pgUsers) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.x.ExecContext(ctx, q, id, at)
	if err != nil {
		logx.Errorf("soft delete user %s: %v", id, err)
	}
	return err
}

// --- profiles ---

type pgProfiles struct{ x sqlExt }

func (r *pgProfiles) Create(ctx context.Context, p *Profile) error {
	const q = `INSERT INTO user_profiles
		(user_id, username, phone, qq, wechat, bio, avatar_data, avatar_mime_type, server_ver, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.x.ExecContext(ctx, q, p.UserID, p.Username, p.Phone, p.QQ, p.WeChat, p.Bio,
		p.AvatarData, p.AvatarMime, p.ServerVer, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *pgProfiles) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	const q = `SELECT user_id, username, phone, qq, wechat, bio, avatar_data, avatar_mime_type,
		server_ver, created_at, updated_at, deleted_at
		FROM user_profiles WHERE user_id = $1 AND deleted_at IS NULL`
	var p Profile
	if err := r.x.GetContext(ctx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *pgProfiles) Merge(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (*Profile, error) {
	existing, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		p := &Profile{
			UserID:     userID,
			Username:   patch.Username,
			Phone:      patch.Phone,
			QQ:         patch.QQ,
			WeChat:     patch.WeChat,
			Bio:        patch.Bio,
			AvatarData: patch.AvatarData,
			AvatarMime: patch.AvatarMime,
			ServerVer:  1,
			CreatedAt:  at,
			UpdatedAt:  at,
		}
		if err := r.Create(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	merged := mergeProfilePatch(existing, patch)
	merged.ServerVer = existing.ServerVer + 1
	merged.UpdatedAt = at

	const q = `UPDATE user_profiles SET username = $2, phone = $3, qq = $4, wechat = $5, bio = $6,
		avatar_data = $7, avatar_mime_type = $8, server_ver = $9, updated_at = $10
		WHERE user_id = $1`
	_, err = r.x.ExecContext(ctx, q, userID, merged.Username, merged.Phone, merged.QQ, merged.WeChat,
		merged.Bio, merged.AvatarData, merged.AvatarMime, merged.ServerVer, merged.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return merged, nil
}

func mergeProfilePatch(existing *Profile, patch ProfilePatch) *Profile {
	merged := *existing
	if patch.Username != nil {
		merged.Username = patch.Username
	}
	if patch.Phone != nil {
		merged.Phone = patch.Phone
	}
	if patch.QQ != nil {
		merged.QQ = patch.QQ
	}
	if patch.WeChat != nil {
		merged.WeChat = patch.WeChat
	}
	if patch.Bio != nil {
		merged.Bio = patch.Bio
	}
	if patch.AvatarData != nil {
		merged.AvatarData = patch.AvatarData
	}
	if patch.AvatarMime != nil {
		merged.AvatarMime = patch.AvatarMime
	}
	return &merged
}

func (r *pgProfiles) SoftDelete(ctx context.Context, userID string, at time.Time) error {
	const q = `UPDATE user_profiles SET deleted_at = $2, updated_at = $2 WHERE user_id = $1 AND deleted_at IS NULL`
	_, err := r.x.ExecContext(ctx, q, userID, at)
	return err
}

// --- sessions ---

type pgSessions struct{ x sqlExt }

func (r *pgSessions) Create(ctx context.Context, s *SshSession) error {
	const q = `INSERT INTO ssh_sessions
		(id, user_id, name, host, port, username, group_name, terminal_type, columns, rows,
		 auth_method_encrypted, auth_nonce, auth_key_salt, server_ver, client_ver, last_synced_at,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.x.ExecContext(ctx, q, s.ID, s.UserID, s.Name, s.Host, s.Port, s.Username, s.GroupName,
		s.TerminalType, s.Columns, s.Rows, s.AuthMethodEncrypted, s.AuthNonce, s.AuthKeySalt,
		s.ServerVer, s.ClientVer, s.LastSyncedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

const selectSessionCols = `id, user_id, name, host, port, username, group_name, terminal_type, columns, rows,
		auth_method_encrypted, auth_nonce, auth_key_salt, server_ver, client_ver, last_synced_at,
		created_at, updated_at, deleted_at`

func (r *pgSessions) GetByID(ctx context.Context, userID, id string) (*SshSession, error) {
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE id = $1 AND user_id = $2`
	var s SshSession
	if err := r.x.GetContext(ctx, &s, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *pgSessions) ListByUser(ctx context.Context, userID string) ([]SshSession, error) {
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	var rows []SshSession
	if err := r.x.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return rows, nil
}

func (r *pgSessions) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]SshSession, error) {
	var rows []SshSession
	if since == nil {
		q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at`
		if err := r.x.SelectContext(ctx, &rows, q, userID); err != nil {
			return nil, fmt.Errorf("list all sessions: %w", err)
		}
		return rows, nil
	}
	q := `SELECT ` + selectSessionCols + ` FROM ssh_sessions
		WHERE user_id = $1 AND deleted_at IS NULL AND updated_at > $2 ORDER BY updated_at`
	if err := r.x.SelectContext(ctx, &rows, q, userID, *since); err != nil {
		return nil, fmt.Errorf("list updated sessions: %w", err)
	}
	return rows, nil
}

func (r *pgSessions) Update(ctx context.Context, s *SshSession, at time.Time) (int32, error) {
	const q = `UPDATE ssh_sessions SET
		name = $3, host = $4, port = $5, username = $6, group_name = $7, terminal_type = $8,
		columns = $9, rows = $10, auth_method_encrypted = $11, auth_nonce = $12, auth_key_salt = $13,
		client_ver = $14, server_ver = server_ver + 1, updated_at = $15
		WHERE id = $1 AND user_id = $2
		RETURNING server_ver`
	var newVer int32
	err := r.x.QueryRowxContext(ctx, q, s.ID, s.UserID, s.Name, s.Host, s.Port, s.Username, s.GroupName,
		s.TerminalType, s.Columns, s.Rows, s.AuthMethodEncrypted, s.AuthNonce, s.AuthKeySalt,
		s.ClientVer, at).Scan(&newVer)
	if err != nil {
		return 0, fmt.Errorf("update session: %w", err)
	}
	return newVer, nil
}

func (r *pgSessions) SoftDelete(ctx context.Context, userID, id string, at time.Time) error {
	const q = `UPDATE ssh_sessions SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	_, err := r.x.ExecContext(ctx, q, id, userID, at)
	return err
}

func (r *pgSessions) Duplicate(ctx context.Context, source *SshSession, newID string, at time.Time) error {
	dup := *source
	dup.ID = newID
	dup.ServerVer = 1
	dup.CreatedAt = at
	dup.UpdatedAt = at
	dup.LastSyncedAt = &at
	dup.DeletedAt = nil
	return r.Create(ctx, &dup)
}
