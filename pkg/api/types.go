package api

// RegisterRequest/LoginRequest/RefreshRequest are the public auth bodies
// (base spec §4.7 / §6).
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterResult / LoginResult / RefreshResult mirror the base spec's
// §4.7 response shapes exactly.
type RegisterResult struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	CreatedAt    int64  `json:"created_at"`
	DeviceID     string `json:"device_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	DeviceID     string `json:"device_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserProfile is the wire shape of the profile entity (base spec §3).
type UserProfile struct {
	UserID      string `json:"user_id"`
	Username    *string `json:"username"`
	Phone       *string `json:"phone"`
	QQ          *string `json:"qq"`
	WeChat      *string `json:"wechat"`
	Bio         *string `json:"bio"`
	AvatarData  *string `json:"avatar_data"`
	AvatarMime  *string `json:"avatar_mime_type"`
	ServerVer   int32   `json:"server_ver"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Username   *string `json:"username,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	QQ         *string `json:"qq,omitempty"`
	WeChat     *string `json:"wechat,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	AvatarData *string `json:"avatar_data,omitempty"`
	AvatarMime *string `json:"avatar_mime_type,omitempty"`
}

// SshSession is the wire shape of the core synced entity (base spec §3).
type SshSession struct {
	ID                  string  `json:"id"`
	UserID              string  `json:"user_id"`
	Name                string  `json:"name"`
	Host                string  `json:"host"`
	Port                int32   `json:"port"`
	Username            string  `json:"username"`
	GroupName           *string `json:"group_name"`
	TerminalType        *string `json:"terminal_type"`
	Columns             *int32  `json:"columns"`
	Rows                *int32  `json:"rows"`
	AuthMethodEncrypted string  `json:"auth_method_encrypted"`
	AuthNonce           string  `json:"auth_nonce"`
	AuthKeySalt         *string `json:"auth_key_salt"`
	ServerVer           int32   `json:"server_ver"`
	ClientVer           int32   `json:"client_ver"`
	LastSyncedAt        *int64  `json:"last_synced_at"`
	CreatedAt           int64   `json:"created_at"`
	UpdatedAt           int64   `json:"updated_at"`
	DeletedAt           *int64  `json:"deleted_at,omitempty"`
}

type CreateSshSessionRequest struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Host                string  `json:"host"`
	Port                int32   `json:"port"`
	Username            string  `json:"username"`
	GroupName           *string `json:"group_name,omitempty"`
	TerminalType        *string `json:"terminal_type,omitempty"`
	Columns             *int32  `json:"columns,omitempty"`
	Rows                *int32  `json:"rows,omitempty"`
	AuthMethodEncrypted string  `json:"auth_method_encrypted"`
	AuthNonce           string  `json:"auth_nonce"`
	AuthKeySalt         *string `json:"auth_key_salt,omitempty"`
	ClientVer           int32   `json:"client_ver"`
}

type UpdateSshSessionRequest struct {
	Name                string  `json:"name"`
	Host                string  `json:"host"`
	Port                int32   `json:"port"`
	Username            string  `json:"username"`
	GroupName           *string `json:"group_name,omitempty"`
	TerminalType        *string `json:"terminal_type,omitempty"`
	Columns             *int32  `json:"columns,omitempty"`
	Rows                *int32  `json:"rows,omitempty"`
	AuthMethodEncrypted string  `json:"auth_method_encrypted"`
	AuthNonce           string  `json:"auth_nonce"`
	AuthKeySalt         *string `json:"auth_key_salt,omitempty"`
	ClientVer           int32   `json:"client_ver"`
}

// SyncRequest/SyncResponse implement the push-then-pull protocol of base
// spec §4.5/§4.6.
type SyncRequest struct {
	LastSyncAt        *int64        `json:"last_sync_at"`
	DeviceID          string        `json:"device_id"`
	UserProfile       *UserProfile  `json:"user_profile,omitempty"`
	SshSessions       []SshSession  `json:"ssh_sessions"`
	DeletedSessionIDs []string      `json:"deleted_session_ids"`
}

type ConflictInfo struct {
	ID         string      `json:"id"`
	EntityType string      `json:"entity_type"`
	ClientVer  int32       `json:"client_ver"`
	ServerVer  int32       `json:"server_ver"`
	ClientData interface{} `json:"client_data"`
	ServerData interface{} `json:"server_data"`
	Message    string      `json:"message"`
}

type SyncResponse struct {
	ServerTime        int64            `json:"server_time"`
	LastSyncAt        int64            `json:"last_sync_at"`
	UpdatedSessionIDs []string         `json:"updated_session_ids"`
	DeletedSessionIDs []string         `json:"deleted_session_ids"`
	ServerVersions    map[string]int32 `json:"server_versions"`
	UserProfile       *UserProfile     `json:"user_profile,omitempty"`
	SshSessions       []SshSession     `json:"ssh_sessions"`
	Conflicts         []ConflictInfo   `json:"conflicts"`
	Message           string           `json:"message,omitempty"`
}

// ConflictStrategy selects how /api/sync/resolve-conflict settles a
// surfaced conflict (base spec §4.6).
type ConflictStrategy string

const (
	StrategyKeepServer ConflictStrategy = "keep_server"
	StrategyKeepLocal  ConflictStrategy = "keep_local"
	StrategyKeepBoth   ConflictStrategy = "keep_both"
)

type ResolveConflictRequest struct {
	ID         string           `json:"id"`
	EntityType string           `json:"entity_type"`
	Strategy   ConflictStrategy `json:"strategy"`
	ClientData *SshSession      `json:"client_data,omitempty"`
}

type ResolveConflictResponse struct {
	ID       string `json:"id"`
	NewID    string `json:"new_id,omitempty"`
	ServerVer int32  `json:"server_ver"`
}
