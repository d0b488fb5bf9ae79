// Package catalog implements the Local Catalog Store (base spec §3): a
// per-machine SQLite database holding every account's cached sessions
// and profile, with a dirty flag driving what the Sync Engine pushes
// next. Grounded on
// original_source/src-tauri/src/database/repositories/ssh_session_repository.rs's
// schema and is_dirty/is_deleted bookkeeping, re-expressed with
// jmoiron/sqlx over mattn/go-sqlite3 the way the teacher wires sqlx over
// lib/pq on the server side.
package catalog

// Account mirrors the original's UserAuth row: one local credential
// envelope per registered account, with is_current marking the active one.
type Account struct {
	ID                    int64   `db:"id"`
	UserID                string  `db:"user_id"`
	ServerURL             string  `db:"server_url"`
	Email                 string  `db:"email"`
	PasswordEncrypted     string  `db:"password_encrypted"`
	PasswordNonce         string  `db:"password_nonce"`
	AccessTokenEncrypted  string  `db:"access_token_encrypted"`
	AccessTokenNonce      string  `db:"access_token_nonce"`
	RefreshTokenEncrypted *string `db:"refresh_token_encrypted"`
	RefreshTokenNonce     *string `db:"refresh_token_nonce"`
	TokenExpiresAt        *int64  `db:"token_expires_at"`
	DeviceID              string  `db:"device_id"`
	LastSyncAt            *int64  `db:"last_sync_at"`
	IsCurrent             bool    `db:"is_current"`
	CreatedAt             int64   `db:"created_at"`
	UpdatedAt             int64   `db:"updated_at"`
}

// Session is the locally cached, possibly-unsynced mirror of
// api.SshSession, carrying the two client-local bookkeeping columns the
// wire type has no use for: IsDirty (needs push) and IsDeleted (tombstone
// pending push).
type Session struct {
	ID                  string  `db:"id"`
	UserID              string  `db:"user_id"`
	Name                string  `db:"name"`
	Host                string  `db:"host"`
	Port                int32   `db:"port"`
	Username            string  `db:"username"`
	GroupName           *string `db:"group_name"`
	TerminalType        *string `db:"terminal_type"`
	Columns             *int32  `db:"columns"`
	Rows                *int32  `db:"rows"`
	AuthMethodEncrypted string  `db:"auth_method_encrypted"`
	AuthNonce           string  `db:"auth_nonce"`
	AuthKeySalt         *string `db:"auth_key_salt"`
	ServerVer           int32   `db:"server_ver"`
	ClientVer           int32   `db:"client_ver"`
	IsDirty             bool    `db:"is_dirty"`
	LastSyncedAt        *int64  `db:"last_synced_at"`
	IsDeleted           bool    `db:"is_deleted"`
	DeletedAt           *int64  `db:"deleted_at"`
	CreatedAt           int64   `db:"created_at"`
	UpdatedAt           int64   `db:"updated_at"`
}

// Schema is applied once at startup (base spec §3's Local Catalog Store).
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id                 TEXT NOT NULL,
	server_url              TEXT NOT NULL,
	email                   TEXT NOT NULL,
	password_encrypted      TEXT NOT NULL,
	password_nonce          TEXT NOT NULL,
	access_token_encrypted  TEXT NOT NULL,
	access_token_nonce      TEXT NOT NULL,
	refresh_token_encrypted TEXT,
	refresh_token_nonce     TEXT,
	token_expires_at        INTEGER,
	device_id               TEXT NOT NULL,
	last_sync_at            INTEGER,
	is_current              INTEGER NOT NULL DEFAULT 0,
	created_at              INTEGER NOT NULL,
	updated_at              INTEGER NOT NULL,
	UNIQUE(user_id, server_url)
);

CREATE TABLE IF NOT EXISTS ssh_sessions (
	id                      TEXT PRIMARY KEY,
	user_id                 TEXT NOT NULL,
	name                    TEXT NOT NULL,
	host                    TEXT NOT NULL,
	port                    INTEGER NOT NULL,
	username                TEXT NOT NULL,
	group_name              TEXT,
	terminal_type           TEXT,
	columns                 INTEGER,
	rows                    INTEGER,
	auth_method_encrypted   TEXT NOT NULL,
	auth_nonce              TEXT NOT NULL,
	auth_key_salt           TEXT,
	server_ver              INTEGER NOT NULL DEFAULT 0,
	client_ver              INTEGER NOT NULL DEFAULT 0,
	is_dirty                INTEGER NOT NULL DEFAULT 1,
	last_synced_at          INTEGER,
	is_deleted              INTEGER NOT NULL DEFAULT 0,
	deleted_at              INTEGER,
	created_at              INTEGER NOT NULL,
	updated_at              INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS ssh_sessions_user_idx ON ssh_sessions(user_id);
`
