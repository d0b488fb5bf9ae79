package repository

import (
	"context"
	"time"
)

// Users is the persistence contract for the server-side user entity
// (base spec §3). Split from the sqlx-backed implementation so tests can
// substitute an in-memory fake, mirroring the teacher's
// services/microservices/auth/rpc/internal/repository.IUsers split.
type Users interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// Profiles is the persistence contract for the user profile entity.
type Profiles interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	// Merge writes non-nil fields of patch onto the stored row (base spec
	// §4.6 "merge non-null fields onto existing"), bumping server_ver and
	// updated_at to at. Creates the row if absent.
	Merge(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (*Profile, error)
	SoftDelete(ctx context.Context, userID string, at time.Time) error
}

// ProfilePatch carries only the fields a caller wants to change; nil
// means "leave the stored value untouched" (base spec §4.6).
type ProfilePatch struct {
	Username   *string
	Phone      *string
	QQ         *string
	WeChat     *string
	Bio        *string
	AvatarData *string
	AvatarMime *string
}

// Sessions is the persistence contract for the core synced SSH session
// entity (base spec §3/§4.6).
type Sessions interface {
	Create(ctx context.Context, s *SshSession) error
	GetByID(ctx context.Context, userID, id string) (*SshSession, error)
	ListByUser(ctx context.Context, userID string) ([]SshSession, error)
	ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]SshSession, error)
	// Update overwrites the mutable fields of an existing row and bumps
	// server_ver = existing.server_ver + 1, strictly monotonic (base spec
	// §4.6, Testable Property 1). Returns the new server_ver.
	Update(ctx context.Context, s *SshSession, at time.Time) (int32, error)
	SoftDelete(ctx context.Context, userID, id string, at time.Time) error
	// Duplicate creates a new row derived from source under a fresh id,
	// used by the KeepBoth conflict-resolution strategy (base spec §4.6).
	Duplicate(ctx context.Context, source *SshSession, newID string, at time.Time) error
}

// Store bundles the three repositories plus a transaction boundary so the
// Sync Endpoint can run conflict-check, push application, and pull
// selection inside one atomic unit under a single server timestamp.
type Store interface {
	Users() Users
	Profiles() Profiles
	Sessions() Sessions
	// WithTx runs fn with repositories bound to a single transaction;
	// panics are re-raised after rollback, mirroring the teacher's
	// shared/repository.BaseRepository.Transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
