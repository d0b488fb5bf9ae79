// Package httpclient is the client-side HTTP transport to the Sync
// Endpoint and Auth Endpoint, grounded on
// original_source/src-tauri/src/services/api_client.rs's ApiClient: a
// bearer-authenticated JSON client that, on a 401, refreshes once and
// retries the same request exactly once before giving up.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
)

// Client talks to one sync server over HTTP, sharing the wire DTOs in
// pkg/api with the server handlers so requests/responses decode
// identically on both ends.
type Client struct {
	http            *http.Client
	baseURL         string
	tokens          *token.Manager
	onRefreshFailed func(ctx context.Context)
}

func New(baseURL string, tokens *token.Manager) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
	tokens.SetRefreshFunc(c.refreshViaServer)
	return c
}

// OnRefreshFailed registers a callback invoked when the refresh token
// itself is no longer valid (base spec §5's "Refresh token invalidated"
// scenario: a 400 from /auth/refresh, surfaced here as
// token.ErrRefreshFailed). The caller wires this to drop the account's
// is_current flag and clear its cached tokens, since this Client has no
// access to the Account Registry itself.
func (c *Client) OnRefreshFailed(fn func(ctx context.Context)) {
	c.onRefreshFailed = fn
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	var staleAccess string
	if authed {
		staleAccess = c.tokens.AccessToken()
		req.Header.Set("Authorization", "Bearer "+staleAccess)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authed {
		if refreshErr := c.tokens.Refresh(ctx, staleAccess); refreshErr != nil {
			if errors.Is(refreshErr, token.ErrRefreshFailed) && c.onRefreshFailed != nil {
				c.onRefreshFailed(ctx)
			}
			return fmt.Errorf("token refresh failed: %w", refreshErr)
		}
		// Retry exactly once with the refreshed token (original's
		// "Token refreshed, please retry the request" path).
		req2, err := http.NewRequestWithContext(ctx, method, c.url(path), bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		req2.Header.Set("Content-Type", "application/json")
		req2.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
		resp2, err := c.http.Do(req2)
		if err != nil {
			return fmt.Errorf("retry %s %s: %w", method, path, err)
		}
		defer resp2.Body.Close()
		return decodeEnvelope(resp2, out)
	}

	return decodeEnvelope(resp, out)
}

// decodeError marks a response body that failed to parse at all — base
// spec §3 step 4 treats this the same as a 400: the server's answer is
// unusable, not merely unavailable.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// statusError carries the HTTP status code a non-2xx response returned,
// so callers can distinguish a definitive rejection (400) from a
// transient server hiccup (5xx) instead of treating every >=400 the same.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned error (%d): %s", e.code, e.message)
}

func decodeEnvelope(resp *http.Response, out interface{}) error {
	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &decodeError{fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode, message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// refreshViaServer is wired into the token.Manager at construction time
// and runs while the manager's refresh lock is held, so it only uses the
// unauthenticated doPublic path, which never touches the token.Manager.
//
// Base spec §3 step 4 scopes "refresh token is dead, force logout" to a
// definitive rejection: a 400 from /auth/refresh or a response body that
// doesn't even parse. A transient 5xx or a transport-level failure (the
// server is briefly unreachable) is not evidence the refresh token
// itself is bad, so it is returned as-is and does not trip
// token.ErrRefreshFailed — the caller can retry on the next 401 instead
// of logging the account out over a blip.
func (c *Client) refreshViaServer(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	var result api.RefreshResult
	err = c.doPublic(ctx, http.MethodPost, "/auth/refresh", api.RefreshRequest{RefreshToken: refreshToken}, &result)
	if err == nil {
		return result.AccessToken, result.RefreshToken, nil
	}

	var se *statusError
	var de *decodeError
	if (errors.As(err, &se) && se.code == http.StatusBadRequest) || errors.As(err, &de) {
		return "", "", fmt.Errorf("%w: %v", token.ErrRefreshFailed, err)
	}
	return "", "", err
}

func (c *Client) doPublic(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, body, out, false)
}

func (c *Client) doAuthed(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, body, out, true)
}

// ==================== auth ====================

func (c *Client) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResult, error) {
	var out api.RegisterResult
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResult, error) {
	var out api.LoginResult
	if err := c.doPublic(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*api.RefreshResult, error) {
	var out api.RefreshResult
	if err := c.doPublic(ctx, http.MethodPost, "/auth/refresh", api.RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doAuthed(ctx, http.MethodDelete, "/auth/account", nil, nil)
}

// ==================== profile ====================

func (c *Client) GetProfile(ctx context.Context) (*api.UserProfile, error) {
	var out api.UserProfile
	if err := c.doAuthed(ctx, http.MethodGet, "/api/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.UserProfile, error) {
	var out api.UserProfile
	if err := c.doAuthed(ctx, http.MethodPut, "/api/user/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.doAuthed(ctx, http.MethodDelete, "/api/user/profile", nil, nil)
}

// ==================== sync ====================

func (c *Client) Sync(ctx context.Context, req *api.SyncRequest) (*api.SyncResponse, error) {
	var out api.SyncResponse
	if err := c.doAuthed(ctx, http.MethodPost, "/api/sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResolveConflict(ctx context.Context, req *api.ResolveConflictRequest) (*api.ResolveConflictResponse, error) {
	var out api.ResolveConflictResponse
	if err := c.doAuthed(ctx, http.MethodPost, "/api/sync/resolve-conflict", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
