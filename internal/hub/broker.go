package hub

import (
	"context"
	"strings"

	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// SendMessage persists a chat message and broadcasts the stored row so
// every client observes the canonical server-assigned id and
// timestamps. Empty text is dropped without a broadcast.
func (h *Hub) SendMessage(ctx context.Context, s *Session, kind store.RoomKind, conversationID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		h.reporter.DroppedValidation(proto.InboundTypeSendMessage, "empty text")
		return
	}
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeSendMessage, "unknown room kind")
		return
	}

	conv, err := h.store.GetConversation(ctx, conversationID)
	if err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeSendMessage, err)
		return
	}

	stored, err := h.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversationID,
		SenderID:       s.UserID,
		RecipientID:    conv.OwnerUserID,
		Body:           text,
		SenderIsAdmin:  s.IsAdmin(),
	})
	if err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeSendMessage, err)
		return
	}

	room := RoomID{Kind: kind, ConversationID: conversationID}
	h.broadcastRoom(room, proto.Event(proto.EventReceiveMessage, messageData(stored)))
}

// EditMessage updates a message's body if the session is the original
// sender or an admin. Unauthorized or missing messages are silent
// no-ops; deleted messages are never edited back into existence.
func (h *Hub) EditMessage(ctx context.Context, s *Session, kind store.RoomKind, conversationID, messageID int64, text string) {
	text = strings.TrimSpace(text)
	if text == "" || !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeEditMessage, "empty text or unknown room kind")
		return
	}

	msg, err := h.store.GetMessage(ctx, messageID)
	if err != nil {
		h.reporter.DroppedValidation(proto.InboundTypeEditMessage, "message not found")
		return
	}
	if msg.ConversationID != conversationID {
		h.reporter.DroppedValidation(proto.InboundTypeEditMessage, "conversation mismatch")
		return
	}
	if !canMutateMessage(s, msg) {
		h.reporter.DroppedUnauthorized(proto.InboundTypeEditMessage, s)
		return
	}
	if msg.Status == store.MessageStatusDeleted {
		h.reporter.DroppedValidation(proto.InboundTypeEditMessage, "message is deleted")
		return
	}

	stored, err := h.store.UpdateMessage(ctx, messageID, text, store.MessageStatusEdited)
	if err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeEditMessage, err)
		return
	}

	room := RoomID{Kind: kind, ConversationID: conversationID}
	h.broadcastRoom(room, proto.Event(proto.EventMessageEdited, messageData(stored)))
}

// DeleteMessage soft-deletes a message by flipping its status; the row
// stays so references and unread badges remain consistent.
func (h *Hub) DeleteMessage(ctx context.Context, s *Session, kind store.RoomKind, conversationID, messageID int64) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeDeleteMessage, "unknown room kind")
		return
	}

	msg, err := h.store.GetMessage(ctx, messageID)
	if err != nil {
		h.reporter.DroppedValidation(proto.InboundTypeDeleteMessage, "message not found")
		return
	}
	if msg.ConversationID != conversationID {
		h.reporter.DroppedValidation(proto.InboundTypeDeleteMessage, "conversation mismatch")
		return
	}
	if !canMutateMessage(s, msg) {
		h.reporter.DroppedUnauthorized(proto.InboundTypeDeleteMessage, s)
		return
	}
	if msg.Status == store.MessageStatusDeleted {
		return
	}

	if _, err := h.store.UpdateMessageStatus(ctx, messageID, store.MessageStatusDeleted); err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeDeleteMessage, err)
		return
	}

	room := RoomID{Kind: kind, ConversationID: conversationID}
	h.broadcastRoom(room, proto.Event(proto.EventMessageDeleted, proto.MessageDeleted{
		RoomKind:       string(kind),
		ConversationID: conversationID,
		MessageID:      messageID,
	}))
}

// MarkRead bulk-flips the other side's unread messages to read. An
// admin reading marks customer messages and vice versa; guests read as
// the customer side. Deleted messages are excluded by the store, so a
// bulk read never resurrects them.
func (h *Hub) MarkRead(ctx context.Context, s *Session, kind store.RoomKind, conversationID int64) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeMarkRead, "unknown room kind")
		return
	}

	otherSideIsAdmin := !s.IsAdmin()
	if _, err := h.store.MarkConversationRead(ctx, conversationID, otherSideIsAdmin); err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeMarkRead, err)
	}
}

// canMutateMessage allows the original sender or any admin. Guests
// have no durable identity, so they can never mutate, even their own
// messages.
func canMutateMessage(s *Session, msg *store.Message) bool {
	if s.IsAdmin() {
		return true
	}
	if s.UserID == nil || msg.SenderID == nil {
		return false
	}
	return *s.UserID == *msg.SenderID
}

func messageData(m *store.Message) proto.MessageData {
	return proto.MessageData{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Body:           m.Body,
		SenderIsAdmin:  m.SenderIsAdmin,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
