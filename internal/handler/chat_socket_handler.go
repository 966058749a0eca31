package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/entity"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/metrics"
	"nexus-chat-be/internal/pkg/ratelimit"
	"nexus-chat-be/internal/pkg/serverutils"
	"nexus-chat-be/internal/service"
	internalWS "nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/rag/access"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Inbound socket events.
const (
	EventJoinRoom      = "join_room"
	EventLeaveRoom     = "leave_room"
	EventSendMessage   = "send_message"
	EventTyping        = "typing"
	EventDeleteMessage = "delete_message"
	EventEditMessage   = "edit_message"
)

const frameTimeout = 30 * time.Second

type ChatSocketHandler struct {
	hub          *internalWS.Hub
	orchestrator service.IChatOrchestrator
	messages     service.IMessageService
	workspaces   service.IWorkspaceService
	profiles     service.IProfileDirectory
	limiter      ratelimit.Limiter
	metrics      *metrics.Metrics
	jwtSecret    string
	logger       logger.ILogger
}

func NewChatSocketHandler(
	hub *internalWS.Hub,
	orchestrator service.IChatOrchestrator,
	messages service.IMessageService,
	workspaces service.IWorkspaceService,
	profiles service.IProfileDirectory,
	limiter ratelimit.Limiter,
	metrics *metrics.Metrics,
	jwtSecret string,
	log logger.ILogger,
) *ChatSocketHandler {
	return &ChatSocketHandler{
		hub:          hub,
		orchestrator: orchestrator,
		messages:     messages,
		workspaces:   workspaces,
		profiles:     profiles,
		limiter:      limiter,
		metrics:      metrics,
		jwtSecret:    jwtSecret,
		logger:       log,
	}
}

func (h *ChatSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}

// ServeWs authenticates before the upgrade. A bad token never gets a session.
func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	userID, err := serverutils.ParseUserID(serverutils.BearerToken(c), h.jwtSecret)
	if err != nil {
		h.logger.Warn("SOCKET", "Rejected handshake", map[string]interface{}{"ip": c.IP(), "error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(
			serverutils.ErrorResponse(fiber.StatusUnauthorized, "auth_failed", err.Error()),
		)
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	session := internalWS.NewSession(h.profiles.Get(c.UserContext(), userID))
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SOCKET", "Session started", map[string]interface{}{
			"user_id":       session.UserID,
			"connection_id": session.ConnectionID,
		})
		internalWS.Serve(h.hub, conn, session, h, h.logger)
		h.logger.Info("SOCKET", "Session ended", map[string]interface{}{
			"user_id":       session.UserID,
			"connection_id": session.ConnectionID,
		})
	})(c)
}

// Dispatch implements websocket.Dispatcher. Failures become error events and
// the connection stays open.
func (h *ChatSocketHandler) Dispatch(c *internalWS.Client, frame internalWS.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	if err := h.dispatch(ctx, c, frame); err != nil {
		if errors.Is(err, internalWS.ErrConnectionClosed) {
			return
		}
		status, code := serverutils.Classify(err)
		detail := err.Error()
		if status == fiber.StatusInternalServerError {
			detail = "internal server error"
			h.logger.Error("SOCKET", "Frame failed", map[string]interface{}{
				"event":   frame.Event,
				"user_id": c.Session.UserID,
				"error":   err.Error(),
			})
		}
		c.EmitError(code, detail, frame.Event)
	}
}

func (h *ChatSocketHandler) dispatch(ctx context.Context, c *internalWS.Client, frame internalWS.Frame) error {
	switch frame.Event {
	case EventSendMessage, EventEditMessage, EventDeleteMessage:
		if err := h.allow(ctx, c); err != nil {
			return err
		}
	}

	switch frame.Event {
	case EventJoinRoom:
		return h.joinRoom(ctx, c, frame.Data)
	case EventLeaveRoom:
		return h.leaveRoom(c, frame.Data)
	case EventSendMessage:
		return h.sendMessage(ctx, c, frame.Data)
	case EventTyping:
		return h.typing(c, frame.Data)
	case EventDeleteMessage:
		return h.deleteMessage(ctx, c, frame.Data)
	case EventEditMessage:
		return h.editMessage(ctx, c, frame.Data)
	default:
		return fmt.Errorf("%w: unknown event %q", service.ErrValidation, frame.Event)
	}
}

func (h *ChatSocketHandler) allow(ctx context.Context, c *internalWS.Client) error {
	if h.limiter == nil {
		return nil
	}
	ok, err := h.limiter.Allow(ctx, c.Session.UserID)
	if err != nil {
		return err
	}
	if !ok {
		h.metrics.RateLimited.WithLabelValues("socket").Inc()
		return fmt.Errorf("%w: too many messages, slow down", service.ErrRateLimited)
	}
	return nil
}

func decode(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed payload", service.ErrValidation)
	}
	return serverutils.ValidateRequest(out)
}

// enter verifies access to an existing thread and joins its room. It returns
// the resolved workspace id and the room id.
func (h *ChatSocketHandler) enter(ctx context.Context, c *internalWS.Client, workspaceID, threadID string) (string, string, error) {
	resolved, err := h.workspaces.ResolveThread(ctx, workspaceID, threadID, c.Session.UserID)
	if err != nil {
		return "", "", err
	}
	room := entity.RoomID(resolved, threadID)
	if !h.hub.InRoom(c, room) && !h.hub.Join(c, room) {
		return "", "", internalWS.ErrConnectionClosed
	}
	return resolved, room, nil
}

func (h *ChatSocketHandler) joinRoom(ctx context.Context, c *internalWS.Client, raw json.RawMessage) error {
	var req dto.RoomRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	resolved, room, err := h.enter(ctx, c, req.WorkspaceId, req.ThreadId)
	if err != nil {
		return err
	}
	h.logger.Info("SOCKET", "Joined room", map[string]interface{}{"user_id": c.Session.UserID, "room": room})
	c.Emit(service.EventRoomJoined, dto.RoomJoinedEvent{WorkspaceId: resolved, ThreadId: req.ThreadId, Room: room})
	return nil
}

func (h *ChatSocketHandler) leaveRoom(c *internalWS.Client, raw json.RawMessage) error {
	var req dto.RoomRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	h.hub.Leave(c, entity.RoomID(access.ResolveWorkspaceID(req.WorkspaceId, c.Session.UserID), req.ThreadId))
	return nil
}

func (h *ChatSocketHandler) sendMessage(ctx context.Context, c *internalWS.Client, raw json.RawMessage) error {
	var req dto.SendMessageRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	// The sender sees its own message through the room broadcast.
	if _, _, err := h.enter(ctx, c, req.WorkspaceId, req.ThreadId); err != nil {
		return err
	}
	_, err := h.orchestrator.HandleUserMessage(ctx, c.Session.Author(), &req)
	return err
}

// typing is relayed only inside rooms the connection has joined.
func (h *ChatSocketHandler) typing(c *internalWS.Client, raw json.RawMessage) error {
	var req dto.TypingRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	resolved := access.ResolveWorkspaceID(req.WorkspaceId, c.Session.UserID)
	room := entity.RoomID(resolved, req.ThreadId)
	if !h.hub.InRoom(c, room) {
		return fmt.Errorf("%w: join the room first", service.ErrUnauthorized)
	}

	isTyping := true
	if req.IsTyping != nil {
		isTyping = *req.IsTyping
	}
	h.hub.EmitToRoom(room, service.EventTyping, dto.TypingEvent{
		WorkspaceId:       resolved,
		ThreadId:          req.ThreadId,
		SenderId:          c.Session.UserID,
		SenderDisplayName: c.Session.VisibleName(),
		IsTyping:          isTyping,
	}, c.Session.UserID)
	return nil
}

func (h *ChatSocketHandler) deleteMessage(ctx context.Context, c *internalWS.Client, raw json.RawMessage) error {
	var req dto.DeleteMessageRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	return h.messages.Delete(ctx, c.Session.UserID, &req)
}

func (h *ChatSocketHandler) editMessage(ctx context.Context, c *internalWS.Client, raw json.RawMessage) error {
	var req dto.EditMessageRequest
	if err := decode(raw, &req); err != nil {
		return err
	}
	_, err := h.messages.Edit(ctx, c.Session.UserID, &req)
	return err
}
