package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/catalog"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/client/token"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewRegistry(store, token.NewManager()), store
}

func TestRegisterEncryptsTokensDeviceBoundAndLoadsManager(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()

	a := &catalog.Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce", DeviceID: "device-a",
	}
	require.NoError(t, r.Register(ctx, a, "access-1", "refresh-1"))

	require.Equal(t, "access-1", r.tokens.AccessToken())
	require.Equal(t, "device-a", r.tokens.DeviceID())

	stored, err := store.FindCurrentAccount(ctx)
	require.NoError(t, err)
	require.NotEqual(t, "access-1", stored.AccessTokenEncrypted)
	require.NotEmpty(t, stored.AccessTokenNonce)
	require.NotNil(t, stored.RefreshTokenEncrypted)
	require.NotEqual(t, "refresh-1", *stored.RefreshTokenEncrypted)
}

func TestAutoLoginHydratesManagerFromStoredAccount(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	a := &catalog.Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce", DeviceID: "device-a",
	}
	require.NoError(t, r.Register(ctx, a, "access-1", "refresh-1"))

	// A fresh process: a new Registry sharing the same store, empty
	// token.Manager, as if the client had just restarted.
	fresh := NewRegistry(r.store, token.NewManager())
	require.NoError(t, fresh.AutoLogin(ctx))
	require.Equal(t, "access-1", fresh.tokens.AccessToken())
	require.Equal(t, "device-a", fresh.tokens.DeviceID())
}

func TestAutoLoginNoCurrentAccountIsNoop(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.AutoLogin(context.Background()))
	require.Empty(t, r.tokens.AccessToken())
}

// Base spec §4.4: a stored token that can no longer be decrypted under
// the account's device_id (e.g. the catalog file was copied to another
// machine) must clear is_current instead of handing the sync loop
// garbage credentials.
func TestAutoLoginClearsCurrentOnDeviceMismatch(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	a := &catalog.Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce", DeviceID: "device-a",
	}
	require.NoError(t, r.Register(ctx, a, "access-1", "refresh-1"))

	fresh := NewRegistry(r.store, token.NewManager())
	// Corrupt the stored ciphertext directly rather than re-deriving a
	// mismatched key, which is simpler to assert than simulating a
	// device_id change end to end.
	require.NoError(t, r.store.DeleteAccount(ctx, "u1"))
	a2 := &catalog.Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce",
		AccessTokenEncrypted: "not-valid-ciphertext", AccessTokenNonce: "not-valid-nonce",
		DeviceID: "device-a", IsCurrent: true,
	}
	require.NoError(t, r.store.UpsertAccount(ctx, a2))

	err := fresh.AutoLogin(ctx)
	require.NoError(t, err)
	require.False(t, fresh.HasCurrent(ctx))
}

func TestSwitchDecryptsTargetAccountTokens(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	a1 := &catalog.Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce", DeviceID: "device-a",
	}
	require.NoError(t, r.Register(ctx, a1, "access-1", "refresh-1"))

	a2 := &catalog.Account{
		UserID: "u2", ServerURL: "http://localhost:8888", Email: "b@b.com",
		PasswordEncrypted: "pw-enc", PasswordNonce: "pw-nonce", DeviceID: "device-b",
	}
	require.NoError(t, r.Register(ctx, a2, "access-2", "refresh-2"))

	require.NoError(t, r.Switch(ctx, "u1"))
	require.Equal(t, "access-1", r.tokens.AccessToken())
	require.Equal(t, "device-a", r.tokens.DeviceID())
}
