package hub

import (
	"context"
	"strconv"

	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
)

// NotificationRequest is a validated notification fan-out request.
// The subject user and event data are merged into one flat template
// context; templates pick what they need.
type NotificationRequest struct {
	Type     string
	Event    string
	UserID   int64
	UserName string
	Data     map[string]string
}

func (r NotificationRequest) templateContext() map[string]string {
	ctx := make(map[string]string, len(r.Data)+3)
	for k, v := range r.Data {
		ctx[k] = v
	}
	ctx["user_id"] = strconv.FormatInt(r.UserID, 10)
	ctx["user_name"] = r.UserName
	if r.Event != "" {
		ctx["event"] = r.Event
	}
	return ctx
}

// NotifyUser creates one notification row for the subject user and
// pushes it, with a recomputed unread count, to every connection that
// user currently holds.
func (h *Hub) NotifyUser(ctx context.Context, caller *Session, req NotificationRequest) {
	row := h.notifyOne(ctx, req, req.UserID, "user")
	if row == nil {
		return
	}
	if caller != nil {
		h.push(caller, proto.Event(proto.EventNotificationCreated, notificationData(row)))
	}
}

// NotifyAdmins creates one notification row per admin account and
// pushes to the admins who are online. The loop is best-effort: a
// failure for one admin is reported and the loop continues, so
// earlier rows are never rolled back.
func (h *Hub) NotifyAdmins(ctx context.Context, caller *Session, req NotificationRequest) {
	adminIDs, err := h.store.ListAdminUserIDs(ctx)
	if err != nil {
		h.reporter.PersistenceFailure(InboundLabelNotify, err)
		return
	}

	var first *store.Notification
	for _, adminID := range adminIDs {
		row := h.notifyOne(ctx, req, adminID, "admin")
		if row != nil && first == nil {
			first = row
		}
	}
	if caller != nil && first != nil {
		h.push(caller, proto.Event(proto.EventNotificationCreated, notificationData(first)))
	}
}

// NotifyBoth fans out to every admin and to the subject user. Total
// rows created is the number of admins plus one.
func (h *Hub) NotifyBoth(ctx context.Context, caller *Session, req NotificationRequest) {
	h.NotifyAdmins(ctx, nil, req)
	h.NotifyUser(ctx, caller, req)
}

// notifyOne renders, persists, and pushes a single recipient's row.
// Returns nil when the recipient was skipped.
func (h *Hub) notifyOne(ctx context.Context, req NotificationRequest, recipientID int64, role string) *store.Notification {
	rendered, err := h.templates.Render(req.Type, role, req.templateContext())
	if err != nil {
		h.reporter.FanoutFailure(req.Type, recipientID, err)
		return nil
	}

	row, err := h.store.CreateNotification(ctx, &store.Notification{
		RecipientUserID: recipientID,
		Type:            req.Type,
		Title:           rendered.Title,
		Body:            rendered.Body,
		Link:            rendered.Link,
	})
	if err != nil {
		h.reporter.FanoutFailure(req.Type, recipientID, err)
		return nil
	}

	h.pushNotification(ctx, recipientID, row)
	return row
}

// pushNotification delivers a stored notification and the recipient's
// recomputed unread count to each of their live connections. A
// recipient who disconnected mid-flight simply has no connections;
// that is not an error.
func (h *Hub) pushNotification(ctx context.Context, recipientID int64, row *store.Notification) {
	conns := h.presence.ConnectionsFor(recipientID)
	if len(conns) == 0 {
		return
	}

	received := proto.Event(proto.EventNotificationReceived, notificationData(row))

	unread, err := h.store.CountUnreadNotifications(ctx, recipientID)
	if err != nil {
		h.reporter.PersistenceFailure(InboundLabelNotify, err)
		unread = -1
	}

	for _, s := range conns {
		h.push(s, received)
		if unread >= 0 {
			h.push(s, proto.Event(proto.EventUnreadCount, proto.UnreadCount{Count: unread}))
		}
	}
}

func notificationData(n *store.Notification) proto.NotificationData {
	return proto.NotificationData{
		ID:              n.ID,
		RecipientUserID: n.RecipientUserID,
		Type:            n.Type,
		Title:           n.Title,
		Body:            n.Body,
		Link:            n.Link,
		IsRead:          n.IsRead,
		CreatedAt:       n.CreatedAt,
	}
}
