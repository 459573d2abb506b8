package hub

import (
	"context"

	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// JoinRoom adds the session to a room and sends everyone the fresh
// member list. Joining twice never duplicates membership, but the
// snapshot is re-broadcast either way so a reconnecting client
// converges.
func (h *Hub) JoinRoom(s *Session, kind store.RoomKind, conversationID int64) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeJoinRoom, "unknown room kind")
		return
	}
	room := RoomID{Kind: kind, ConversationID: conversationID}
	h.presence.JoinRoom(room, s.ConnID)
	h.broadcastMembersUpdate(room)
}

// LeaveRoom removes the session from a room and updates the remaining
// members.
func (h *Hub) LeaveRoom(s *Session, kind store.RoomKind, conversationID int64) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeLeaveRoom, "unknown room kind")
		return
	}
	room := RoomID{Kind: kind, ConversationID: conversationID}
	if !h.presence.LeaveRoom(room, s.ConnID) {
		return
	}
	h.broadcastMembersUpdate(room)
}

// CreateSupportRoom opens a new bubble conversation for the session.
// Guests create ownerless conversations. All connected admins learn
// about the new room; only the creator receives the ready signal with
// the conversation id.
func (h *Hub) CreateSupportRoom(ctx context.Context, s *Session) {
	conv, err := h.store.CreateConversation(ctx, store.RoomKindBubble, s.UserID)
	if err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeCreateSupportRoom, err)
		return
	}

	room := RoomID{Kind: store.RoomKindBubble, ConversationID: conv.ID}
	h.presence.JoinRoom(room, s.ConnID)

	created := proto.Event(proto.EventSupportRoomCreated, proto.SupportRoomCreated{
		ConversationID: conv.ID,
		Creator:        s.MemberInfo(),
	})
	for _, admin := range h.presence.AdminSessions() {
		h.push(admin, created)
	}

	h.push(s, proto.Event(proto.EventSupportRoomReady, proto.SupportRoomReady{
		ConversationID: conv.ID,
	}))

	h.log.Info().Int64("conversation_id", conv.ID).Str("conn_id", s.ConnID).
		Bool("guest", s.IsGuest()).Msg("support room created")
}

// DeleteConversation removes a conversation if the session owns it or
// is an admin; anything else is a silent no-op. Deletion cascades
// through persistence, the room's members are told, and every
// connected client gets a refresh signal because conversation list
// views elsewhere are not room-scoped.
func (h *Hub) DeleteConversation(ctx context.Context, s *Session, kind store.RoomKind, conversationID int64) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeDeleteConversation, "unknown room kind")
		return
	}

	conv, err := h.store.GetConversation(ctx, conversationID)
	if err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeDeleteConversation, err)
		return
	}

	if !canDeleteConversation(s, conv) {
		h.reporter.DroppedUnauthorized(proto.InboundTypeDeleteConversation, s)
		return
	}

	if err := h.store.DeleteConversation(ctx, conversationID); err != nil {
		h.reporter.PersistenceFailure(proto.InboundTypeDeleteConversation, err)
		return
	}

	room := RoomID{Kind: kind, ConversationID: conversationID}
	h.broadcastRoom(room, proto.Event(proto.EventConversationDeleted, proto.ConversationDeleted{
		RoomKind:       string(kind),
		ConversationID: conversationID,
	}))
	h.presence.DropRoom(room)

	h.broadcastAll(proto.Event(proto.EventRefreshConversationLists, proto.ConversationDeleted{
		RoomKind:       string(kind),
		ConversationID: conversationID,
	}))

	h.log.Info().Int64("conversation_id", conversationID).Str("conn_id", s.ConnID).Msg("conversation deleted")
}

func canDeleteConversation(s *Session, conv *store.Conversation) bool {
	if s.IsAdmin() {
		return true
	}
	if s.UserID == nil || conv.OwnerUserID == nil {
		return false
	}
	return *s.UserID == *conv.OwnerUserID
}
