package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client -> hub message types.
const (
	InboundTypeJoinRoom           = "join_room"
	InboundTypeLeaveRoom          = "leave_room"
	InboundTypeCreateSupportRoom  = "create_support_room"
	InboundTypeDeleteConversation = "delete_conversation"
	InboundTypeSendMessage        = "send_message"
	InboundTypeEditMessage        = "edit_message"
	InboundTypeDeleteMessage      = "delete_message"
	InboundTypeMarkRead           = "mark_read"
	InboundTypeTyping             = "typing"
	InboundTypeSetLocale          = "set_locale"
	InboundTypeNotifyUser         = "create_notification_for_user"
	InboundTypeNotifyAdmin        = "create_notification_for_admin"
	InboundTypeNotifyBoth         = "create_notification_for_both"
)

// Hub -> client event names.
const (
	EventRoomUsersUpdate          = "room_users_update"
	EventSupportRoomCreated       = "support_room_created"
	EventSupportRoomReady         = "support_room_ready"
	EventConversationDeleted      = "conversation_deleted"
	EventRefreshConversationLists = "refresh_conversation_lists"
	EventReceiveMessage           = "receive_message"
	EventMessageEdited            = "message_edited"
	EventMessageDeleted           = "message_deleted"
	EventUserTyping               = "user_typing"
	EventNotificationReceived     = "notification_received"
	EventNotificationCreated      = "notification_created"
	EventUnreadCount              = "unread_count"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Event wraps data in an outbound event envelope.
func Event(name string, data any) Outbound {
	return Outbound{Type: "event", Event: name, Data: data}
}

// ==== inbound payloads ====

// RoomRef addresses a room by kind and conversation.
type RoomRef struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
}

// SendMessageData carries a new chat message.
type SendMessageData struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
	Text           string `json:"text"`
}

// EditMessageData carries a message edit.
type EditMessageData struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
	Text           string `json:"text"`
}

// DeleteMessageData carries a message deletion.
type DeleteMessageData struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

// TypingData carries a typing indicator from the client.
type TypingData struct {
	ConversationID int64 `json:"conversation_id"`
	IsTyping       bool  `json:"is_typing"`
}

// SetLocaleData switches the session locale.
type SetLocaleData struct {
	Locale string `json:"locale"`
}

// NotifyUserRef identifies the user a notification is about.
type NotifyUserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// NotifyData is the request payload for notification fan-out. Type
// selects the template; Data is merged into the template context.
type NotifyData struct {
	Type  string            `json:"type"`
	Event string            `json:"event,omitempty"`
	User  NotifyUserRef     `json:"user"`
	Data  map[string]string `json:"data,omitempty"`
}

// ==== outbound payloads ====

// MemberInfo describes one session in a room snapshot.
type MemberInfo struct {
	UserID *int64 `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// RoomUsersUpdate is the full member-list snapshot of a room.
type RoomUsersUpdate struct {
	RoomKind       string       `json:"room_kind"`
	ConversationID int64        `json:"conversation_id"`
	Members        []MemberInfo `json:"members"`
}

// SupportRoomCreated announces a new support room to admins.
type SupportRoomCreated struct {
	ConversationID int64      `json:"conversation_id"`
	Creator        MemberInfo `json:"creator"`
}

// SupportRoomReady tells the creator its room exists.
type SupportRoomReady struct {
	ConversationID int64 `json:"conversation_id"`
}

// ConversationDeleted announces a conversation deletion to room members.
type ConversationDeleted struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
}

// MessageData is the canonical stored message row as broadcast to rooms.
type MessageData struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       *int64    `json:"sender_id"`
	RecipientID    *int64    `json:"recipient_id"`
	Body           string    `json:"body"`
	SenderIsAdmin  bool      `json:"sender_is_admin"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MessageDeleted announces a soft-deleted message by id.
type MessageDeleted struct {
	RoomKind       string `json:"room_kind"`
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

// UserTyping relays a typing indicator to the room.
type UserTyping struct {
	ConversationID int64  `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
	Who            string `json:"who"`
}

// NotificationData is a stored notification row as pushed to recipients.
type NotificationData struct {
	ID              int64     `json:"id"`
	RecipientUserID int64     `json:"recipient_user_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Link            string    `json:"link"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}

// UnreadCount pushes a recomputed unread notification count.
type UnreadCount struct {
	Count int64 `json:"count"`
}
