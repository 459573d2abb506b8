package hub

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// Hub coordinates presence, rooms, message brokering, and notification
// fan-out. Handlers are invoked directly from connection read loops;
// the presence registry serializes all shared-state mutations, and
// persistence calls always happen outside its lock.
type Hub struct {
	store     store.Store
	presence  *Registry
	templates TemplateResolver
	reporter  *Reporter
	log       *zerolog.Logger
}

// New creates a hub.
func New(st store.Store, templates TemplateResolver, logger *zerolog.Logger) *Hub {
	return &Hub{
		store:     st,
		presence:  NewRegistry(),
		templates: templates,
		reporter:  NewReporter(logger),
		log:       logger,
	}
}

// Presence exposes the registry for transports and tests.
func (h *Hub) Presence() *Registry {
	return h.presence
}

// Connect registers a new connection. A failed identity resolution is
// the caller's concern: it passes a guest identity instead of
// rejecting, so the anonymous widget always connects.
func (h *Hub) Connect(identity *auth.Identity) *Session {
	s := NewSession(uuid.NewString(), identity)
	h.presence.Register(s)
	wsActiveConnections.Inc()

	entry := h.log.Info().Str("conn_id", s.ConnID).Str("role", string(s.Role))
	if s.UserID != nil {
		entry = entry.Int64("user_id", *s.UserID)
	}
	entry.Msg("session connected")
	return s
}

// Disconnect removes the session from the global registry and from
// every room it was in, then tells the remaining members.
func (h *Hub) Disconnect(connID string) {
	s, affected := h.presence.Unregister(connID)
	if s == nil {
		return
	}
	wsActiveConnections.Dec()

	for _, room := range affected {
		h.broadcastMembersUpdate(room)
	}

	h.log.Info().Str("conn_id", connID).Int("rooms_pruned", len(affected)).Msg("session disconnected")
}

// Typing relays a typing indicator to everyone else in the room.
func (h *Hub) Typing(s *Session, kind store.RoomKind, conversationID int64, isTyping bool) {
	if !kind.Valid() {
		h.reporter.DroppedValidation(proto.InboundTypeTyping, "unknown room kind")
		return
	}
	room := RoomID{Kind: kind, ConversationID: conversationID}
	out := proto.Event(proto.EventUserTyping, proto.UserTyping{
		ConversationID: conversationID,
		IsTyping:       isTyping,
		Who:            s.Name,
	})
	for _, member := range h.presence.MembersOf(room) {
		if member.ConnID == s.ConnID {
			continue
		}
		h.push(member, out)
	}
}

// SetLocale switches the session locale and, for registered users,
// persists the preference best-effort.
func (h *Hub) SetLocale(ctx context.Context, s *Session, locale string) {
	if locale == "" {
		h.reporter.DroppedValidation(proto.InboundTypeSetLocale, "empty locale")
		return
	}
	s.SetLocale(locale)
	if s.UserID != nil {
		if err := h.store.UpdateUserLocale(ctx, *s.UserID, locale); err != nil {
			h.reporter.PersistenceFailure(proto.InboundTypeSetLocale, err)
		}
	}
}

// push delivers one event to one session, tolerating slow consumers.
func (h *Hub) push(s *Session, out proto.Outbound) {
	if !s.Send(out) {
		h.reporter.SlowConsumer(s.ConnID, out.Event)
	}
}

// broadcastRoom delivers an event to every current member of a room.
func (h *Hub) broadcastRoom(room RoomID, out proto.Outbound) {
	for _, member := range h.presence.MembersOf(room) {
		h.push(member, out)
	}
}

// broadcastAll delivers an event to every connected session.
func (h *Hub) broadcastAll(out proto.Outbound) {
	for _, s := range h.presence.Sessions() {
		h.push(s, out)
	}
}

// broadcastMembersUpdate sends the room's full member list snapshot to
// its current members. Snapshots are last-write-wins, not diffs.
func (h *Hub) broadcastMembersUpdate(room RoomID) {
	members := h.presence.MembersOf(room)
	infos := make([]proto.MemberInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, m.MemberInfo())
	}
	out := proto.Event(proto.EventRoomUsersUpdate, proto.RoomUsersUpdate{
		RoomKind:       string(room.Kind),
		ConversationID: room.ConversationID,
		Members:        infos,
	})
	for _, m := range members {
		h.push(m, out)
	}
}
