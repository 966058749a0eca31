package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(metrics.NewNop(), logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(hub *Hub, profile *entity.Profile) *Client {
	c := NewClient(hub, nil, NewSession(profile), logger.NewNopLogger())
	hub.Register(c)
	return c
}

// frames drains everything queued for c without blocking.
func frames(t *testing.T, c *Client) []Frame {
	t.Helper()
	var out []Frame
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return out
			}
			var f Frame
			require.NoError(t, json.Unmarshal(raw, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestBroadcastReachesEachConnectionOnce(t *testing.T) {
	hub := startHub(t)
	alice := connect(hub, &entity.Profile{Id: "alice", FullName: "Alice"})
	bob := connect(hub, &entity.Profile{Id: "bob", FullName: "Bob"})
	outsider := connect(hub, &entity.Profile{Id: "carol", FullName: "Carol"})

	room := entity.RoomID("ws-1", "general")
	hub.Join(alice, room)
	hub.Join(bob, room)
	hub.Join(bob, room)
	assert.Equal(t, 2, hub.RoomSize(room))

	msg := &entity.Message{Id: "m1", WorkspaceId: "ws-1", ThreadId: "general", Role: "user", Content: "hi", SenderId: "alice", CreatedAt: time.Now()}
	hub.BroadcastMessage(msg, alice.Session.Author())

	for _, c := range []*Client{alice, bob} {
		got := frames(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, service.EventNewMessage, got[0].Event)
		assert.NotZero(t, got[0].Ts)

		var ev dto.NewMessageEvent
		require.NoError(t, json.Unmarshal(got[0].Data, &ev))
		assert.Equal(t, "m1", ev.MessageId)
		assert.Equal(t, "Alice", ev.SenderDisplayName)
	}
	assert.Empty(t, frames(t, outsider))
}

func TestBroadcastMasksPrivateAuthorForOthers(t *testing.T) {
	hub := startHub(t)
	image := "https://cdn.example.com/carol.png"
	carol := connect(hub, &entity.Profile{Id: "carol", FullName: "Carol", ProfileImage: &image, IsPrivate: true})
	bob := connect(hub, &entity.Profile{Id: "bob", FullName: "Bob"})

	room := entity.RoomID("ws-1", "general")
	hub.Join(carol, room)
	hub.Join(bob, room)

	msg := &entity.Message{Id: "m1", WorkspaceId: "ws-1", ThreadId: "general", Role: "user", Content: "psst", SenderId: "carol"}
	hub.BroadcastMessage(msg, carol.Session.Author())

	var seenByBob, seenByCarol dto.NewMessageEvent
	require.NoError(t, json.Unmarshal(frames(t, bob)[0].Data, &seenByBob))
	require.NoError(t, json.Unmarshal(frames(t, carol)[0].Data, &seenByCarol))

	assert.Equal(t, carol.Session.Alias, seenByBob.SenderDisplayName)
	assert.Regexp(t, `^User-[0-9A-F]{4}$`, seenByBob.SenderDisplayName)
	assert.Nil(t, seenByBob.SenderImage)
	assert.Equal(t, "Carol", seenByCarol.SenderDisplayName)
	require.NotNil(t, seenByCarol.SenderImage)
}

func TestEmitToRoomAndUser(t *testing.T) {
	hub := startHub(t)
	alice := connect(hub, &entity.Profile{Id: "alice"})
	bobPhone := connect(hub, &entity.Profile{Id: "bob"})
	bobLaptop := connect(hub, &entity.Profile{Id: "bob"})

	room := entity.RoomID("ws-1", "general")
	hub.Join(alice, room)
	hub.Join(bobPhone, room)

	hub.EmitToRoom(room, service.EventTyping, dto.TypingEvent{SenderId: "alice", IsTyping: true}, "alice")
	assert.Empty(t, frames(t, alice))
	assert.Len(t, frames(t, bobPhone), 1)
	assert.Empty(t, frames(t, bobLaptop), "not joined to the room")

	hub.EmitToUser("bob", service.EventMessageDeleted, dto.MessageDeletedEvent{Id: "m1", Type: "self"})
	assert.Len(t, frames(t, bobPhone), 1)
	assert.Len(t, frames(t, bobLaptop), 1)
	assert.Empty(t, frames(t, alice))
}

func TestUnregisterLeavesRoomsAndClosesSend(t *testing.T) {
	hub := startHub(t)
	alice := connect(hub, &entity.Profile{Id: "alice"})
	room := entity.RoomID("ws-1", "general")
	hub.Join(alice, room)

	hub.Unregister(alice)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-alice.Send
	assert.False(t, ok)

	alice.Emit(service.EventError, dto.ErrorEvent{Code: "x"})
	hub.EmitToUser("alice", service.EventError, dto.ErrorEvent{Code: "x"})
}

func TestDroppedConnectionCannotRejoin(t *testing.T) {
	hub := startHub(t)
	alice := connect(hub, &entity.Profile{Id: "alice"})
	bob := connect(hub, &entity.Profile{Id: "bob"})
	room := entity.RoomID("ws-1", "general")
	require.True(t, hub.Join(bob, room))

	hub.Unregister(alice)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return alice.closed
	}, time.Second, 5*time.Millisecond)

	assert.False(t, hub.Join(alice, room))
	assert.Equal(t, 1, hub.RoomSize(room))
	assert.False(t, hub.InRoom(alice, room))

	assert.NotPanics(t, func() {
		hub.EmitToRoom(room, service.EventTyping, dto.TypingEvent{SenderId: "carol"}, "")
		hub.BroadcastMessage(&entity.Message{Id: "m1", WorkspaceId: "ws-1", ThreadId: "general", Content: "hi"}, entity.Author{UserID: "carol"})
		hub.EmitToUser("alice", service.EventError, dto.ErrorEvent{Code: "x"})
	})
	assert.Len(t, frames(t, bob), 2)
}

func TestPushSkipsClosedConnection(t *testing.T) {
	hub := startHub(t)
	alice := connect(hub, &entity.Profile{Id: "alice"})
	room := entity.RoomID("ws-1", "general")
	require.True(t, hub.Join(alice, room))

	// A connection removed while still indexed by a room must not be written to.
	hub.mu.Lock()
	alice.closed = true
	close(alice.Send)
	hub.mu.Unlock()

	assert.NotPanics(t, func() {
		hub.EmitToRoom(room, service.EventTyping, dto.TypingEvent{SenderId: "bob"}, "")
	})
}
