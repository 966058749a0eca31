package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/service"
	internalWS "nexus-chat-be/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberOnly struct {
	service.IWorkspaceService
	members map[string]bool
}

func (m memberOnly) CanAccess(ctx context.Context, workspaceID, userID string) (string, error) {
	if !m.members[userID] {
		return "", fmt.Errorf("%w: not a member", service.ErrUnauthorized)
	}
	return workspaceID, nil
}

func (m memberOnly) ResolveThread(ctx context.Context, workspaceID, threadID, userID string) (string, error) {
	resolved, err := m.CanAccess(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if threadID != "general" {
		return "", fmt.Errorf("%w: chat", service.ErrNotFound)
	}
	return resolved, nil
}

type recordingOrchestrator struct {
	service.IChatOrchestrator
	hub  *internalWS.Hub
	sent []*dto.SendMessageRequest
}

func (o *recordingOrchestrator) HandleUserMessage(ctx context.Context, author entity.Author, req *dto.SendMessageRequest) (*entity.Message, error) {
	o.sent = append(o.sent, req)
	msg := &entity.Message{Id: fmt.Sprintf("m%d", len(o.sent)), WorkspaceId: req.WorkspaceId, ThreadId: req.ThreadId, Role: "user", Content: req.Content, SenderId: author.UserID}
	o.hub.BroadcastMessage(msg, author)
	return msg, nil
}

type quota struct{ left int }

func (q *quota) Allow(ctx context.Context, key string) (bool, error) {
	if q.left <= 0 {
		return false, nil
	}
	q.left--
	return true, nil
}

func newSocketHandler(t *testing.T, limit int) (*ChatSocketHandler, *internalWS.Hub, *recordingOrchestrator) {
	t.Helper()
	hub := internalWS.NewHub(metrics.NewNop(), logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	orch := &recordingOrchestrator{hub: hub}
	h := NewChatSocketHandler(
		hub,
		orch,
		nil,
		memberOnly{members: map[string]bool{"alice": true, "bob": true}},
		nil,
		&quota{left: limit},
		metrics.NewNop(),
		"secret",
		logger.NewNopLogger(),
	)
	return h, hub, orch
}

func connectClient(hub *internalWS.Hub, id string) *internalWS.Client {
	c := internalWS.NewClient(hub, nil, internalWS.NewSession(&entity.Profile{Id: id, FullName: id}), logger.NewNopLogger())
	hub.Register(c)
	return c
}

func frame(t *testing.T, event string, data interface{}) internalWS.Frame {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return internalWS.Frame{Event: event, Data: raw}
}

func drain(t *testing.T, c *internalWS.Client) []internalWS.Frame {
	t.Helper()
	var out []internalWS.Frame
	for {
		select {
		case raw := <-c.Send:
			var f internalWS.Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func errorCode(t *testing.T, f internalWS.Frame) string {
	t.Helper()
	require.Equal(t, service.EventError, f.Event)
	var ev dto.ErrorEvent
	require.NoError(t, json.Unmarshal(f.Data, &ev))
	return ev.Code
}

func TestTwoConnectionsSeeOneNewMessageEach(t *testing.T) {
	h, _, orch := newSocketHandler(t, 10)
	hub := h.hub
	alice := connectClient(hub, "alice")
	bob := connectClient(hub, "bob")

	room := dto.RoomRequest{WorkspaceId: "ws-1", ThreadId: "general"}
	h.Dispatch(bob, frame(t, EventJoinRoom, room))
	joined := drain(t, bob)
	require.Len(t, joined, 1)
	assert.Equal(t, service.EventRoomJoined, joined[0].Event)

	// alice never joined explicitly; sending puts her in the room.
	h.Dispatch(alice, frame(t, EventSendMessage, dto.SendMessageRequest{WorkspaceId: "ws-1", ThreadId: "general", Content: "hello"}))
	require.Len(t, orch.sent, 1)

	for _, c := range []*internalWS.Client{alice, bob} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, service.EventNewMessage, got[0].Event)
	}
}

func TestSocketErrorsKeepConnection(t *testing.T) {
	h, hub, orch := newSocketHandler(t, 10)
	mallory := connectClient(hub, "mallory")
	alice := connectClient(hub, "alice")

	h.Dispatch(mallory, frame(t, EventJoinRoom, dto.RoomRequest{WorkspaceId: "ws-1", ThreadId: "general"}))
	got := drain(t, mallory)
	require.Len(t, got, 1)
	assert.Equal(t, "unauthorized", errorCode(t, got[0]))

	h.Dispatch(alice, frame(t, EventSendMessage, map[string]string{"workspace_id": "ws-1"}))
	got = drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "validation_error", errorCode(t, got[0]))

	h.Dispatch(alice, frame(t, "dance", map[string]string{}))
	got = drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "validation_error", errorCode(t, got[0]))

	h.Dispatch(alice, frame(t, EventTyping, dto.TypingRequest{WorkspaceId: "ws-1", ThreadId: "general"}))
	got = drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "unauthorized", errorCode(t, got[0]), "typing requires a joined room")

	assert.Empty(t, orch.sent)
}

func TestSocketRateLimit(t *testing.T) {
	h, hub, orch := newSocketHandler(t, 1)
	alice := connectClient(hub, "alice")

	msg := dto.SendMessageRequest{WorkspaceId: "ws-1", ThreadId: "general", Content: "one"}
	h.Dispatch(alice, frame(t, EventSendMessage, msg))
	h.Dispatch(alice, frame(t, EventSendMessage, msg))

	assert.Len(t, orch.sent, 1)
	got := drain(t, alice)
	require.Len(t, got, 2)
	assert.Equal(t, service.EventNewMessage, got[0].Event)
	assert.Equal(t, "rate_limited", errorCode(t, got[1]))
}

func TestTypingSkipsSender(t *testing.T) {
	h, hub, _ := newSocketHandler(t, 10)
	alice := connectClient(hub, "alice")
	bob := connectClient(hub, "bob")

	room := dto.RoomRequest{WorkspaceId: "ws-1", ThreadId: "general"}
	h.Dispatch(alice, frame(t, EventJoinRoom, room))
	h.Dispatch(bob, frame(t, EventJoinRoom, room))
	drain(t, alice)
	drain(t, bob)

	h.Dispatch(alice, frame(t, EventTyping, dto.TypingRequest{WorkspaceId: "ws-1", ThreadId: "general"}))
	assert.Empty(t, drain(t, alice))

	got := drain(t, bob)
	require.Len(t, got, 1)
	var ev dto.TypingEvent
	require.NoError(t, json.Unmarshal(got[0].Data, &ev))
	assert.Equal(t, "alice", ev.SenderId)
	assert.True(t, ev.IsTyping)
}

func TestUnknownThreadIsRefused(t *testing.T) {
	h, hub, orch := newSocketHandler(t, 10)
	alice := connectClient(hub, "alice")

	h.Dispatch(alice, frame(t, EventJoinRoom, dto.RoomRequest{WorkspaceId: "ws-1", ThreadId: "no-such-thread"}))
	got := drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "not_found", errorCode(t, got[0]))

	h.Dispatch(alice, frame(t, EventSendMessage, dto.SendMessageRequest{WorkspaceId: "ws-1", ThreadId: "no-such-thread", Content: "hello"}))
	got = drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, "not_found", errorCode(t, got[0]))

	assert.Empty(t, orch.sent)
	assert.Zero(t, hub.RoomSize(entity.RoomID("ws-1", "no-such-thread")))
}

func TestFramesAfterDropDoNotRejoin(t *testing.T) {
	h, hub, orch := newSocketHandler(t, 10)
	alice := connectClient(hub, "alice")
	bob := connectClient(hub, "bob")
	room := dto.RoomRequest{WorkspaceId: "ws-1", ThreadId: "general"}
	h.Dispatch(bob, frame(t, EventJoinRoom, room))
	drain(t, bob)

	hub.Unregister(alice)
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-alice.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// The read pump may still hand over frames queued before the drop.
	assert.NotPanics(t, func() {
		h.Dispatch(alice, frame(t, EventJoinRoom, room))
		h.Dispatch(alice, frame(t, EventSendMessage, dto.SendMessageRequest{WorkspaceId: "ws-1", ThreadId: "general", Content: "late"}))
		h.Dispatch(bob, frame(t, EventSendMessage, dto.SendMessageRequest{WorkspaceId: "ws-1", ThreadId: "general", Content: "still here"}))
	})

	assert.Len(t, orch.sent, 1)
	assert.Equal(t, 1, hub.RoomSize(entity.RoomID("ws-1", "general")))
	got := drain(t, bob)
	require.Len(t, got, 1)
	assert.Equal(t, service.EventNewMessage, got[0].Event)
}
