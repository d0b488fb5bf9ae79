// Package repository implements the per-entity persistence layer (base
// spec §4, "Repositories"): monotonic server_ver on every mutation and
// soft-delete via deleted_at. Grounded on the teacher's
// shared/repository.BaseRepository (NamedExecContext, transactions with
// panic-safe rollback) adapted from that package's generic business
// models to this spec's User / Profile / SshSession entities.
package repository

import "time"

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	DeviceID     string     `db:"device_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

type Profile struct {
	UserID     string     `db:"user_id"`
	Username   *string    `db:"username"`
	Phone      *string    `db:"phone"`
	QQ         *string    `db:"qq"`
	WeChat     *string    `db:"wechat"`
	Bio        *string    `db:"bio"`
	AvatarData *string    `db:"avatar_data"`
	AvatarMime *string    `db:"avatar_mime_type"`
	ServerVer  int32      `db:"server_ver"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

type SshSession struct {
	ID                  string     `db:"id"`
	UserID              string     `db:"user_id"`
	Name                string     `db:"name"`
	Host                string     `db:"host"`
	Port                int32      `db:"port"`
	Username            string     `db:"username"`
	GroupName           *string    `db:"group_name"`
	TerminalType        *string    `db:"terminal_type"`
	Columns             *int32     `db:"columns"`
	Rows                *int32     `db:"rows"`
	AuthMethodEncrypted string     `db:"auth_method_encrypted"`
	AuthNonce           string     `db:"auth_nonce"`
	AuthKeySalt         *string    `db:"auth_key_salt"`
	ServerVer           int32      `db:"server_ver"`
	ClientVer           int32      `db:"client_ver"`
	LastSyncedAt        *time.Time `db:"last_synced_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"`
}

// Schema is the Postgres DDL this repository expects. Executed by
// whatever migration tooling the deployment uses; kept here as the single
// source of truth for the column set above.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	device_id      TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	deleted_at     TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_active_idx ON users (email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id          TEXT PRIMARY KEY REFERENCES users(id),
	username         TEXT,
	phone            TEXT,
	qq               TEXT,
	wechat           TEXT,
	bio              TEXT,
	avatar_data      TEXT,
	avatar_mime_type TEXT,
	server_ver       INTEGER NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	deleted_at       TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ssh_sessions (
	id                     TEXT PRIMARY KEY,
	user_id                TEXT NOT NULL REFERENCES users(id),
	name                   TEXT NOT NULL,
	host                   TEXT NOT NULL,
	port                   INTEGER NOT NULL,
	username               TEXT NOT NULL,
	group_name             TEXT,
	terminal_type          TEXT,
	columns                INTEGER,
	rows                   INTEGER,
	auth_method_encrypted  TEXT NOT NULL,
	auth_nonce             TEXT NOT NULL,
	auth_key_salt          TEXT,
	server_ver             INTEGER NOT NULL DEFAULT 1,
	client_ver             INTEGER NOT NULL DEFAULT 1,
	last_synced_at         TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL,
	deleted_at             TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS ssh_sessions_user_updated_idx ON ssh_sessions (user_id, updated_at);
`
