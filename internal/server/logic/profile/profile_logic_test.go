package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/repository"
	"github.com/shenjianZ/ssh-terminal-sub000/internal/server/svc"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/api"
	"github.com/shenjianZ/ssh-terminal-sub000/pkg/apierr"
)

func newTestServiceContext() *svc.ServiceContext {
	return &svc.ServiceContext{Store: repository.NewMemoryStore()}
}

func TestGetReturnsNotFoundBeforeFirstUpdate(t *testing.T) {
	svcCtx := newTestServiceContext()
	ctx := context.Background()

	_, err := New(ctx, svcCtx).Get("u1")
	require.Error(t, err)
	require.Equal(t, apierr.KindNotFound, apierr.As(err).Kind)
}

func TestUpdateCreatesThenMergesPartialFields(t *testing.T) {
	svcCtx := newTestServiceContext()
	ctx := context.Background()
	logic := New(ctx, svcCtx)

	name := "alice"
	p1, err := logic.Update("u1", &api.UpdateProfileRequest{Username: &name})
	require.NoError(t, err)
	require.EqualValues(t, 1, p1.ServerVer)

	bio := "hi there"
	p2, err := logic.Update("u1", &api.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.EqualValues(t, 2, p2.ServerVer)
	require.Equal(t, "alice", *p2.Username)
	require.Equal(t, "hi there", *p2.Bio)
}

func TestDeleteThenGetReturnsNotFound(t *testing.T) {
	svcCtx := newTestServiceContext()
	ctx := context.Background()
	logic := New(ctx, svcCtx)

	name := "bob"
	_, err := logic.Update("u2", &api.UpdateProfileRequest{Username: &name})
	require.NoError(t, err)

	require.NoError(t, logic.Delete("u2"))

	_, err = logic.Get("u2")
	require.Error(t, err)
	require.Equal(t, apierr.KindNotFound, apierr.As(err).Kind)
}
