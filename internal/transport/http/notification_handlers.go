package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/streamvista/chathub/internal/store"
)

// NotificationHandlers serves the notification inbox for the dashboard
// and the admin back office.
type NotificationHandlers struct {
	store store.NotificationStore
	log   *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(st store.NotificationStore, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		store: st,
		log:   logger,
	}
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// List returns the caller's most recent notifications.
// GET /api/notifications
func (h *NotificationHandlers) List(c *gin.Context) {
	userID := c.GetInt64(ContextKeyUserID)

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	rows, err := h.store.ListNotifications(c.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		response = append(response, NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			Link:      n.Link,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, response)
}

// UnreadCount returns the caller's unread notification count.
// GET /api/notifications/unread_count
func (h *NotificationHandlers) UnreadCount(c *gin.Context) {
	userID := c.GetInt64(ContextKeyUserID)

	count, err := h.store.CountUnreadNotifications(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to count unread notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAllRead flips every unread notification of the caller to read.
// POST /api/notifications/read
func (h *NotificationHandlers) MarkAllRead(c *gin.Context) {
	userID := c.GetInt64(ContextKeyUserID)

	if err := h.store.MarkNotificationsRead(c.Request.Context(), userID); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to mark notifications read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}
