package service

import (
	"context"
	"testing"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePersonalIsIdempotent(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()

	first, created, err := h.workspaces.EnsurePersonal(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "personal_alice", first.Id)
	assert.True(t, first.IsPersonal)

	second, created, err := h.workspaces.EnsurePersonal(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)

	threads, err := h.uowFactory.NewUnitOfWork(ctx).ThreadRepository().FindByWorkspace(ctx, first.Id)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, constant.DefaultThreadID, threads[0].Id)
}

func TestListForUserPutsPersonalFirst(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	list, err := h.workspaces.ListForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "personal_bob", list[0].Id)
	require.Len(t, list[0].Threads, 1, "a synthesized General chat before materialization")
	assert.Equal(t, ws.Id, list[1].Id)
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	joined, err := h.workspaces.Join(ctx, ws.Id, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, joined.Members)

	joined, err = h.workspaces.Join(ctx, ws.Id, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, joined.Members, "the owner is never listed as a member")

	_, err = h.workspaces.Join(ctx, "personal_alice", "bob")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.workspaces.Join(ctx, "does-not-exist", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateThreadRequiresMembership(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	thread, err := h.workspaces.CreateThread(ctx, ws.Id, "bob", "  ")
	require.NoError(t, err)
	assert.Equal(t, defaultNewThreadTitle, thread.Title)

	_, err = h.workspaces.CreateThread(ctx, ws.Id, "mallory", "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)

	personal, err := h.workspaces.CreateThread(ctx, constant.PersonalWorkspaceMarker, "alice", "Notes")
	require.NoError(t, err)
	assert.Equal(t, "personal_alice", personal.WorkspaceId)

	threads, err := h.uowFactory.NewUnitOfWork(ctx).ThreadRepository().FindByWorkspace(ctx, "personal_alice")
	require.NoError(t, err)
	assert.Len(t, threads, 2, "General is seeded on materialization")
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	_, err := h.messages.Append(ctx, author("bob", "Bob"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: "hello",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, h.workspaces.Delete(ctx, ws.Id, "bob"), ErrUnauthorized)
	assert.ErrorIs(t, h.workspaces.Delete(ctx, constant.PersonalWorkspaceMarker, "alice"), ErrForbidden)
	assert.ErrorIs(t, h.workspaces.Delete(ctx, "personal_alice", "alice"), ErrForbidden)

	require.NoError(t, h.workspaces.Delete(ctx, ws.Id, "alice"))

	uow := h.uowFactory.NewUnitOfWork(ctx)
	left, err := uow.MessageRepository().Count(ctx, specification.ByWorkspace{WorkspaceID: ws.Id})
	require.NoError(t, err)
	assert.Zero(t, left)

	_, err = h.workspaces.CanAccess(ctx, ws.Id, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteThreadIsOwnerOnly(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)

	_, err := h.messages.Append(ctx, author("alice", "Alice"), &dto.SendMessageRequest{
		WorkspaceId: ws.Id, ThreadId: constant.DefaultThreadID, Content: "hello",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, h.workspaces.DeleteThread(ctx, ws.Id, constant.DefaultThreadID, "bob"), ErrUnauthorized)
	assert.ErrorIs(t, h.workspaces.DeleteThread(ctx, ws.Id, "missing", "alice"), ErrNotFound)
	require.NoError(t, h.workspaces.DeleteThread(ctx, ws.Id, constant.DefaultThreadID, "alice"))

	msgs, err := h.messages.Range(ctx, "alice", ws.Id, constant.DefaultThreadID, nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRosterMasksPrivateUsers(t *testing.T) {
	h := newHarness(t, replying("unused"))
	ctx := context.Background()
	ws := h.teamWorkspace(t)
	_, err := h.workspaces.Join(ctx, ws.Id, "carol-9876")
	require.NoError(t, err)

	roster, err := h.workspaces.Roster(ctx, ws.Id, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "User-9876"}, roster)
	assert.Equal(t, "Alice", roster[0], "the owner leads the roster")

	roster, err = h.workspaces.Roster(ctx, ws.Id, "carol-9876")
	require.NoError(t, err)
	assert.Contains(t, roster, "Carol")
}
