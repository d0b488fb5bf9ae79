// Package account implements the Account Registry (base spec §3):
// multi-account bookkeeping over the Local Catalog Store, grounded on
// original_source/src-tauri/src/services/auth_service.rs's
// list_accounts/switch_account/logout/delete_account methods.
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/catalog"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/envelope"
)

type Registry struct {
	store  *catalog.Store
	tokens *token.Manager
}

func NewRegistry(store *catalog.Store, tokens *token.Manager) *Registry {
	return &Registry{store: store, tokens: tokens}
}

// Current returns the account flagged is_current, or catalog.ErrNotFound
// if no account has ever logged in on this machine.
func (r *Registry) Current(ctx context.Context) (*catalog.Account, error) {
	return r.store.FindCurrentAccount(ctx)
}

func (r *Registry) HasCurrent(ctx context.Context) bool {
	_, err := r.store.FindCurrentAccount(ctx)
	return err == nil
}

func (r *Registry) List(ctx context.Context) ([]catalog.Account, error) {
	return r.store.ListAccounts(ctx)
}

// AutoLogin implements base spec §4.4: on startup, hydrate the token
// manager from the is_current account's locally stored tokens only — no
// network round trip. If the on-disk database was copied from another
// machine (or device_id otherwise no longer matches), the device-bound
// decrypt fails; AutoLogin then drops is_current rather than driving the
// background sync loop with garbage credentials.
func (r *Registry) AutoLogin(ctx context.Context) error {
	acct, err := r.store.FindCurrentAccount(ctx)
	if err != nil {
		if err == catalog.ErrNotFound {
			return nil
		}
		return fmt.Errorf("auto login: %w", err)
	}
	if err := r.loadTokens(acct); err != nil {
		if envelope.ErrIs(err, envelope.ErrDecrypt) || envelope.ErrIs(err, envelope.ErrMalformed) {
			return r.store.ClearCurrentAccount(ctx)
		}
		return fmt.Errorf("auto login: %w", err)
	}
	return nil
}

// loadTokens decrypts acct's device-bound access/refresh tokens and
// loads the plaintext pair into the in-memory token.Manager (base spec
// §4.4 step 3: "decrypt the target account's access/refresh token using
// its device_id").
func (r *Registry) loadTokens(acct *catalog.Account) error {
	access, err := envelope.DecryptDeviceBound(acct.AccessTokenEncrypted, acct.AccessTokenNonce, acct.DeviceID)
	if err != nil {
		return err
	}

	var refresh []byte
	if acct.RefreshTokenEncrypted != nil && acct.RefreshTokenNonce != nil {
		refresh, err = envelope.DecryptDeviceBound(*acct.RefreshTokenEncrypted, *acct.RefreshTokenNonce, acct.DeviceID)
		if err != nil {
			return err
		}
	}

	r.tokens.SetTokens(string(access), string(refresh))
	r.tokens.SetDeviceID(acct.DeviceID)
	return nil
}

// Switch flips is_current to userID and decrypts its stored token pair
// into the in-memory token.Manager, matching the original's
// switch_account reinitializing the ApiClient from the target account's
// own envelope (base spec §4.4 step 3) rather than trusting plaintext
// tokens a caller happens to be holding.
func (r *Registry) Switch(ctx context.Context, userID string) error {
	if err := r.store.SwitchAccount(ctx, userID); err != nil {
		return fmt.Errorf("switch account: %w", err)
	}
	acct, err := r.store.FindCurrentAccount(ctx)
	if err != nil {
		return fmt.Errorf("switch account: %w", err)
	}
	if err := r.loadTokens(acct); err != nil {
		return fmt.Errorf("switch account: decrypt tokens: %w", err)
	}
	return nil
}

// Logout clears the is_current marker without deleting any cached
// session data, and drops the in-memory tokens.
func (r *Registry) Logout(ctx context.Context) error {
	r.tokens.Clear()
	return r.store.ClearCurrentAccount(ctx)
}

// Delete removes an account's local row entirely (its synced sessions on
// the server are unaffected — that is the separate DELETE /auth/account
// operation).
func (r *Registry) Delete(ctx context.Context, userID string) error {
	return r.store.DeleteAccount(ctx, userID)
}

// Register persists a freshly authenticated account as an entry in the
// registry and marks it current, matching the original's pattern of
// writing the account row right after register/login succeeds. a's
// *_encrypted/PasswordNonce fields are expected to already be populated
// (the password envelope is derived from the user's own secret, outside
// this package); accessToken/refreshToken are plaintext and are sealed
// here with the device-bound envelope before ever touching disk (base
// spec §4.1 device-bound variant) — this is also what loads the pair
// into the in-memory token.Manager for the caller's current process.
func (r *Registry) Register(ctx context.Context, a *catalog.Account, accessToken, refreshToken string) error {
	accessEnc, accessNonce, err := envelope.EncryptDeviceBound([]byte(accessToken), a.DeviceID)
	if err != nil {
		return fmt.Errorf("register account: encrypt access token: %w", err)
	}
	a.AccessTokenEncrypted, a.AccessTokenNonce = accessEnc, accessNonce

	a.RefreshTokenEncrypted, a.RefreshTokenNonce = nil, nil
	if refreshToken != "" {
		refreshEnc, refreshNonce, err := envelope.EncryptDeviceBound([]byte(refreshToken), a.DeviceID)
		if err != nil {
			return fmt.Errorf("register account: encrypt refresh token: %w", err)
		}
		a.RefreshTokenEncrypted, a.RefreshTokenNonce = &refreshEnc, &refreshNonce
	}

	now := time.Now().Unix()
	a.CreatedAt, a.UpdatedAt = now, now
	a.IsCurrent = true
	if err := r.store.UpsertAccount(ctx, a); err != nil {
		return err
	}
	if err := r.store.SwitchAccount(ctx, a.UserID); err != nil {
		return err
	}
	r.tokens.SetTokens(accessToken, refreshToken)
	r.tokens.SetDeviceID(a.DeviceID)
	return nil
}
