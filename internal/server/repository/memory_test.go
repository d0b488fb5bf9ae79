package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryUsersCreateAndLookup(t *testing.T) {
	store := NewMemoryStore()
	users := store.Users()
	ctx := context.Background()

	u := &User{ID: "1000000001", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	exists, err := users.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	_, err = users.GetByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsersSoftDeleteHidesFromLookup(t *testing.T) {
	store := NewMemoryStore()
	users := store.Users()
	ctx := context.Background()

	u := &User{ID: "1", Email: "b@example.com", PasswordHash: "hash", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, users.SoftDelete(ctx, "1", time.Now()))

	_, err := users.GetByEmail(ctx, "b@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = users.GetByID(ctx, "1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProfilesMergeBumpsServerVer(t *testing.T) {
	store := NewMemoryStore()
	profiles := store.Profiles()
	ctx := context.Background()

	name := "alice"
	p, err := profiles.Merge(ctx, "u1", ProfilePatch{Username: &name}, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, p.ServerVer)

	bio := "hello"
	p2, err := profiles.Merge(ctx, "u1", ProfilePatch{Bio: &bio}, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 2, p2.ServerVer)
	require.Equal(t, "alice", *p2.Username) // untouched field survives the merge
	require.Equal(t, "hello", *p2.Bio)
}

func TestMemorySessionsUpdateIsMonotonic(t *testing.T) {
	store := NewMemoryStore()
	sessions := store.Sessions()
	ctx := context.Background()

	s := &SshSession{ID: "s1", UserID: "u1", Name: "box", Host: "1.2.3.4", Port: 22, Username: "root", ServerVer: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, sessions.Create(ctx, s))

	s.Name = "box2"
	v1, err := sessions.Update(ctx, s, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 2, v1)

	v2, err := sessions.Update(ctx, s, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 3, v2)
}

func TestMemorySessionsSoftDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	sessions := store.Sessions()
	ctx := context.Background()

	s := &SshSession{ID: "s1", UserID: "u1", Name: "box", Host: "1.2.3.4", Port: 22, Username: "root", ServerVer: 1, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, sessions.Create(ctx, s))

	require.NoError(t, sessions.SoftDelete(ctx, "u1", "s1", time.Now()))
	require.NoError(t, sessions.SoftDelete(ctx, "u1", "s1", time.Now())) // second call must not error

	list, err := sessions.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestMemorySessionsDuplicateForKeepBoth(t *testing.T) {
	store := NewMemoryStore()
	sessions := store.Sessions()
	ctx := context.Background()

	s := &SshSession{ID: "s1", UserID: "u1", Name: "box", Host: "1.2.3.4", Port: 22, Username: "root", ServerVer: 5, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, sessions.Create(ctx, s))

	require.NoError(t, sessions.Duplicate(ctx, s, "s1-conflict-xyz", time.Now()))

	dup, err := sessions.GetByID(ctx, "u1", "s1-conflict-xyz")
	require.NoError(t, err)
	require.EqualValues(t, 1, dup.ServerVer)
	require.Equal(t, "box", dup.Name)

	original, err := sessions.GetByID(ctx, "u1", "s1")
	require.NoError(t, err)
	require.EqualValues(t, 5, original.ServerVer) // the source row is untouched
}
