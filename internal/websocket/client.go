package websocket

import (
	"encoding/json"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Dispatcher handles one inbound frame. It runs on the connection's read
// goroutine, so frames from one connection are handled in order.
type Dispatcher interface {
	Dispatch(c *Client, frame Frame)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Session *Session

	// Buffered channel of outbound frames.
	Send chan []byte
	// set by the hub, under its lock, when Send is closed
	closed bool

	logger logger.ILogger
}

func NewClient(hub *Hub, conn *websocket.Conn, session *Session, log logger.ILogger) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Session: session,
		Send:    make(chan []byte, sendBuffer),
		logger:  log,
	}
}

// Emit queues a frame for this connection only.
func (c *Client) Emit(event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		c.logger.Error("CLIENT", "Failed to encode frame", map[string]interface{}{"event": event, "error": err.Error()})
		return
	}
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if !c.closed {
		c.Hub.push(c, frame)
	}
}

// EmitError sends an error event and keeps the connection open.
func (c *Client) EmitError(code, detail, event string) {
	c.Emit(service.EventError, dto.ErrorEvent{Code: code, Detail: detail, Event: event})
}

func (c *Client) readPump(dispatcher Dispatcher) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("CLIENT", "Unexpected close", map[string]interface{}{
					"user_id": c.Session.UserID,
					"error":   err.Error(),
				})
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			c.EmitError("bad_frame", "frames must be JSON objects with an event name", "")
			continue
		}
		dispatcher.Dispatch(c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per websocket message; clients parse each as JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve registers the connection and blocks until it closes. The write pump
// runs on its own goroutine; the read pump runs on the caller's.
func Serve(hub *Hub, conn *websocket.Conn, session *Session, dispatcher Dispatcher, log logger.ILogger) {
	client := NewClient(hub, conn, session, log)
	hub.Register(client)

	go client.writePump()
	client.readPump(dispatcher)
}
