package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenTwiceFailsOnFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	first, err := Open(path)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(path)
	require.Error(t, err)
}

func TestAccountRoundTripAndCurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	a := &Account{
		UserID: "u1", ServerURL: "http://localhost:8888", Email: "a@b.com",
		PasswordEncrypted: "enc", PasswordNonce: "nonce", AccessTokenEncrypted: "at",
		DeviceID: "dev1", IsCurrent: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.UpsertAccount(ctx, a))

	current, err := store.FindCurrentAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", current.UserID)

	_, err = store.FindCurrentAccount(ctx)
	require.NoError(t, err)
}

func TestSwitchAccountMakesExactlyOneCurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Unix()

	for _, id := range []string{"u1", "u2"} {
		require.NoError(t, store.UpsertAccount(ctx, &Account{
			UserID: id, ServerURL: "http://localhost:8888", Email: id + "@b.com",
			PasswordEncrypted: "enc", PasswordNonce: "nonce", AccessTokenEncrypted: "at",
			DeviceID: "dev-" + id, CreatedAt: now, UpdatedAt: now,
		}))
	}

	require.NoError(t, store.SwitchAccount(ctx, "u1"))
	current, err := store.FindCurrentAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", current.UserID)

	require.NoError(t, store.SwitchAccount(ctx, "u2"))
	current, err = store.FindCurrentAccount(ctx)
	require.NoError(t, err)
	require.Equal(t, "u2", current.UserID)

	all, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSwitchAccountUnknownUserReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.SwitchAccount(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func newTestSession(id string, dirty bool) *Session {
	now := time.Now().Unix()
	return &Session{
		ID: id, UserID: "u1", Name: "box", Host: "1.2.3.4", Port: 22, Username: "root",
		AuthMethodEncrypted: "enc", AuthNonce: "nonce", IsDirty: dirty,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateSessionThenFindByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess := newTestSession("s1", true)
	require.NoError(t, store.CreateSession(ctx, sess))

	found, err := store.FindSessionByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "box", found.Name)
	require.True(t, found.IsDirty)
}

func TestListDirtySessionsExcludesCleanAndDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, newTestSession("dirty1", true)))
	require.NoError(t, store.CreateSession(ctx, newTestSession("clean1", false)))

	deleted := newTestSession("deleted1", true)
	deleted.IsDeleted = true
	require.NoError(t, store.CreateSession(ctx, deleted))

	dirty, err := store.ListDirtySessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	require.Equal(t, "dirty1", dirty[0].ID)
}

func TestSoftDeleteSessionMarksDirtyAndDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, newTestSession("s1", false)))
	require.NoError(t, store.SoftDeleteSession(ctx, "s1", time.Now().Unix()))

	ids, err := store.ListDirtyDeletedSessionIDs(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"s1"}, ids)

	// Soft-deleted rows stay out of the active listing.
	active, err := store.ListSessionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestClearDirtyRecordsServerVerAndSyncTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, newTestSession("s1", true)))
	require.NoError(t, store.ClearDirty(ctx, "s1", 3, 1234))

	found, err := store.FindSessionByID(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found.IsDirty)
	require.EqualValues(t, 3, found.ServerVer)
	require.EqualValues(t, 1234, *found.LastSyncedAt)
}

func TestPurgeDeletedSessionRemovesRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, newTestSession("s1", true)))
	require.NoError(t, store.PurgeDeletedSession(ctx, "s1"))

	_, err := store.FindSessionByID(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertFromServerCreatesCleanRowIfAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	remote := newTestSession("s1", false)
	remote.ServerVer = 5
	require.NoError(t, store.UpsertFromServer(ctx, remote))

	found, err := store.FindSessionByID(ctx, "s1")
	require.NoError(t, err)
	require.False(t, found.IsDirty)
	require.EqualValues(t, 5, found.ServerVer)
}

// Base spec §4.5: a pulled row overwrites synced fields but must never
// clear a dirty flag or resurrect a locally-pending delete out from
// under an unpushed local edit.
func TestUpsertFromServerPreservesLocalDirtyFlagOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	local := newTestSession("s1", true)
	require.NoError(t, store.CreateSession(ctx, local))

	remote := newTestSession("s1", false)
	remote.Name = "renamed-by-server"
	remote.ServerVer = 2
	require.NoError(t, store.UpsertFromServer(ctx, remote))

	found, err := store.FindSessionByID(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found.IsDirty)
	require.Equal(t, "renamed-by-server", found.Name)
	require.EqualValues(t, 2, found.ServerVer)
}

func TestUpsertFromServerPreservesLocalTombstoneOnConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	local := newTestSession("s1", false)
	require.NoError(t, store.CreateSession(ctx, local))
	require.NoError(t, store.SoftDeleteSession(ctx, "s1", 1234))

	remote := newTestSession("s1", false)
	remote.ServerVer = 3
	require.NoError(t, store.UpsertFromServer(ctx, remote))

	found, err := store.FindSessionByID(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found.IsDeleted)
	require.NotNil(t, found.DeletedAt)
	require.True(t, found.IsDirty)
}
