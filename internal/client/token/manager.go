// Package token implements the Token Lifecycle (base spec §3): holding
// the current access/refresh token pair in memory and refreshing once,
// under a lock, before a caller gives up on a 401. Grounded on
// original_source/src-tauri/src/services/api_client.rs's ApiClient token
// fields and try_refresh_token/handle_response retry-once flow.
package token

import (
	"context"
	"errors"
	"sync"
)

// ErrRefreshFailed is returned when the refresh token itself is no
// longer valid — the terminal case the original surfaces as
// TOKEN_REFRESH_FAILED, forcing the caller back to the login screen.
var ErrRefreshFailed = errors.New("token: refresh token is no longer valid, login again")

// RefreshFunc exchanges a refresh token for a new pair against the
// server. Supplied by package httpclient so this package never imports
// the HTTP layer itself.
type RefreshFunc func(ctx context.Context, refreshToken string) (access, refresh string, err error)

type Manager struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	deviceID     string
	refreshFn    RefreshFunc
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetRefreshFunc(fn RefreshFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshFn = fn
}

func (m *Manager) SetTokens(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = access
	m.refreshToken = refresh
}

func (m *Manager) SetDeviceID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceID = id
}

func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

func (m *Manager) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceID
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = ""
	m.refreshToken = ""
}

// Refresh exchanges the held refresh token for a new pair. staleAccess
// is the access token the caller saw 401, i.e. the one it is trying to
// replace. Concurrent callers racing the same 401 all block on this
// mutex; only the first to acquire it still sees staleAccess == the
// current token and actually hits the network. Every later waiter wakes
// up to find m.accessToken already moved on — evidence the first
// refresh already happened — and reuses that result instead of
// re-hitting the network, mirroring the original's single
// Mutex<Option<String>> around access_token and "others wait and reuse
// its result".
func (m *Manager) Refresh(ctx context.Context, staleAccess string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if staleAccess != "" && staleAccess != m.accessToken {
		return nil
	}

	if m.refreshFn == nil {
		return errors.New("token: no refresh function configured")
	}
	if m.refreshToken == "" {
		return ErrRefreshFailed
	}

	access, refresh, err := m.refreshFn(ctx, m.refreshToken)
	if err != nil {
		return err
	}
	m.accessToken = access
	m.refreshToken = refresh
	return nil
}
