package hub

import (
	"context"
	"encoding/json"

	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// Dispatch routes one inbound client event to its handler. Every path
// is fire-and-forget: validation and authorization failures drop the
// event without a reply, and a panicking handler is contained so a
// malformed event can never take down the hub or the connection.
func (h *Hub) Dispatch(ctx context.Context, s *Session, inbound proto.Inbound) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Interface("panic", rec).Str("event", inbound.Type).
				Str("conn_id", s.ConnID).Msg("recovered from handler panic")
		}
	}()

	h.reporter.EventDispatched(inbound.Type)

	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var data proto.RoomRef
		if !h.decode(inbound, &data) {
			return
		}
		h.JoinRoom(s, store.RoomKind(data.RoomKind), data.ConversationID)

	case proto.InboundTypeLeaveRoom:
		var data proto.RoomRef
		if !h.decode(inbound, &data) {
			return
		}
		h.LeaveRoom(s, store.RoomKind(data.RoomKind), data.ConversationID)

	case proto.InboundTypeCreateSupportRoom:
		h.CreateSupportRoom(ctx, s)

	case proto.InboundTypeDeleteConversation:
		var data proto.RoomRef
		if !h.decode(inbound, &data) {
			return
		}
		h.DeleteConversation(ctx, s, store.RoomKind(data.RoomKind), data.ConversationID)

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if !h.decode(inbound, &data) {
			return
		}
		h.SendMessage(ctx, s, store.RoomKind(data.RoomKind), data.ConversationID, data.Text)

	case proto.InboundTypeEditMessage:
		var data proto.EditMessageData
		if !h.decode(inbound, &data) {
			return
		}
		h.EditMessage(ctx, s, store.RoomKind(data.RoomKind), data.ConversationID, data.MessageID, data.Text)

	case proto.InboundTypeDeleteMessage:
		var data proto.DeleteMessageData
		if !h.decode(inbound, &data) {
			return
		}
		h.DeleteMessage(ctx, s, store.RoomKind(data.RoomKind), data.ConversationID, data.MessageID)

	case proto.InboundTypeMarkRead:
		var data proto.RoomRef
		if !h.decode(inbound, &data) {
			return
		}
		h.MarkRead(ctx, s, store.RoomKind(data.RoomKind), data.ConversationID)

	case proto.InboundTypeTyping:
		var data proto.TypingData
		if !h.decode(inbound, &data) {
			return
		}
		// typing is only meaningful inside the rooms the session joined;
		// both kinds are tried since the indicator carries no kind.
		h.Typing(s, store.RoomKindLive, data.ConversationID, data.IsTyping)
		h.Typing(s, store.RoomKindBubble, data.ConversationID, data.IsTyping)

	case proto.InboundTypeSetLocale:
		var data proto.SetLocaleData
		if !h.decode(inbound, &data) {
			return
		}
		h.SetLocale(ctx, s, data.Locale)

	case proto.InboundTypeNotifyUser:
		if req, ok := h.notificationRequest(inbound, true); ok {
			h.NotifyUser(ctx, s, req)
		}

	case proto.InboundTypeNotifyAdmin:
		if req, ok := h.notificationRequest(inbound, false); ok {
			h.NotifyAdmins(ctx, s, req)
		}

	case proto.InboundTypeNotifyBoth:
		if req, ok := h.notificationRequest(inbound, true); ok {
			h.NotifyBoth(ctx, s, req)
		}

	default:
		h.reporter.DroppedValidation(inbound.Type, "unknown event type")
	}
}

func (h *Hub) decode(inbound proto.Inbound, v any) bool {
	if err := json.Unmarshal(inbound.Data, v); err != nil {
		h.reporter.DroppedValidation(inbound.Type, "malformed payload")
		return false
	}
	return true
}

// notificationRequest validates the untyped notify payload into a
// NotificationRequest before it reaches the template resolver.
func (h *Hub) notificationRequest(inbound proto.Inbound, needUser bool) (NotificationRequest, bool) {
	var data proto.NotifyData
	if !h.decode(inbound, &data) {
		return NotificationRequest{}, false
	}
	if data.Type == "" {
		h.reporter.DroppedValidation(inbound.Type, "missing notification type")
		return NotificationRequest{}, false
	}
	if needUser && data.User.ID == 0 {
		h.reporter.DroppedValidation(inbound.Type, "missing target user")
		return NotificationRequest{}, false
	}
	return NotificationRequest{
		Type:     data.Type,
		Event:    data.Event,
		UserID:   data.User.ID,
		UserName: data.User.Name,
		Data:     data.Data,
	}, true
}
