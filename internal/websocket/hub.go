package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/service"
)

// Frame is the envelope of every socket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ts    int64           `json:"ts"`
}

func encodeFrame(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw, Ts: time.Now().UnixMilli()})
}

// Hub tracks live connections by user and by room. It implements
// service.Broadcaster for a single process.
type Hub struct {
	// UserID -> connections (multi-device)
	clients map[string][]*Client
	// room -> connections joined to it
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	metrics *metrics.Metrics
	logger  logger.ILogger
}

var _ service.Broadcaster = (*Hub)(nil)

// ErrConnectionClosed is returned for frames still arriving from a connection
// the hub already dropped.
var ErrConnectionClosed = errors.New("connection closed")

func NewHub(m *metrics.Metrics, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     log,
	}
}

// Run owns registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Session.UserID] = append(h.clients[client.Session.UserID], client)
			h.mu.Unlock()
			h.metrics.ActiveConnections.Inc()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{
				"user_id":       client.Session.UserID,
				"connection_id": client.Session.ConnectionID,
			})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.Session.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c != client {
			continue
		}
		h.clients[client.Session.UserID] = append(clients[:i], clients[i+1:]...)
		for room := range client.Session.rooms {
			h.leaveLocked(client, room)
		}
		client.closed = true
		close(client.Send)
		h.metrics.ActiveConnections.Dec()
		break
	}
	if len(h.clients[client.Session.UserID]) == 0 {
		delete(h.clients, client.Session.UserID)
		h.logger.Info("HUB", "Client completely unregistered", map[string]interface{}{"user_id": client.Session.UserID})
	}
}

// Join adds the connection to room. Joining twice is a no-op. It reports false
// once the connection has been dropped, so a late frame from its read pump
// cannot put it back into a room.
func (h *Hub) Join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.Session.rooms[room] = true
	return true
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.Session.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.Session.rooms[room]
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastMessage renders new_message once per viewer so private authors
// are masked for everyone but themselves.
func (h *Hub) BroadcastMessage(msg *entity.Message, author entity.Author) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[msg.RoomID()] {
		name, image := author.ViewFor(c.Session.UserID)
		ev := dto.NewMessageEvent{
			MessageId:         msg.Id,
			WorkspaceId:       msg.WorkspaceId,
			ThreadId:          msg.ThreadId,
			Role:              msg.Role,
			Content:           msg.Content,
			SenderId:          msg.SenderId,
			SenderDisplayName: name,
			SenderImage:       image,
			CreatedAt:         msg.CreatedAt,
		}
		if msg.ReplyTo != nil {
			ev.ReplyTo = &dto.ReplyToDTO{
				Id:       msg.ReplyTo.MessageId,
				SenderId: msg.ReplyTo.SenderId,
				Sender:   msg.ReplyTo.Sender,
				Content:  msg.ReplyTo.Content,
			}
		}
		h.deliver(c, service.EventNewMessage, ev)
	}
}

func (h *Hub) EmitToRoom(roomID, event string, data interface{}, exceptUserID string) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("HUB", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if exceptUserID != "" && c.Session.UserID == exceptUserID {
			continue
		}
		h.push(c, frame)
	}
}

func (h *Hub) EmitToUser(userID, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("HUB", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[userID] {
		h.push(c, frame)
	}
}

func (h *Hub) deliver(c *Client, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("HUB", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}
	h.push(c, frame)
}

// push never blocks. A connection whose buffer is full is dropped; the hub
// lock is held by the caller, so removal happens on another goroutine.
// Send is closed once closed is set, and select does not guard a closed channel.
func (h *Hub) push(c *Client, frame []byte) {
	if c.closed {
		return
	}
	select {
	case c.Send <- frame:
	default:
		h.logger.Warn("HUB", "Client send buffer full, dropping connection", map[string]interface{}{
			"user_id":       c.Session.UserID,
			"connection_id": c.Session.ConnectionID,
		})
		go h.Unregister(c)
	}
}
