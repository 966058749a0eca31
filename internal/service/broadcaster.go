package service

import "nexus-chat-be/internal/entity"

// Outbound realtime event names.
const (
	EventNewMessage     = "new_message"
	EventTyping         = "typing"
	EventMessageDeleted = "message_deleted"
	EventMessageUpdated = "message_updated"
	EventRoomJoined     = "room_joined"
	EventError          = "error"
)

// Broadcaster delivers realtime events. The websocket hub implements it.
type Broadcaster interface {
	// BroadcastMessage sends new_message to every connection in the
	// message's room, rendering the author per viewer.
	BroadcastMessage(msg *entity.Message, author entity.Author)
	// EmitToRoom skips connections of exceptUserID when it is not empty.
	EmitToRoom(roomID, event string, data interface{}, exceptUserID string)
	EmitToUser(userID, event string, data interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastMessage(*entity.Message, entity.Author) {}
func (nopBroadcaster) EmitToRoom(string, string, interface{}, string) {}
func (nopBroadcaster) EmitToUser(string, string, interface{}) {}

// NopBroadcaster is used by HTTP only flows and tests.
var NopBroadcaster Broadcaster = nopBroadcaster{}
