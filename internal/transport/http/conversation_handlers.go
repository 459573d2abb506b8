package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/streamvista/chathub/internal/store"
)

// ConversationHandlers serves conversation-scoped message state for the
// dashboard and the admin back office.
type ConversationHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewConversationHandlers creates a new conversation handlers instance.
func NewConversationHandlers(st store.MessageStore, logger *zerolog.Logger) *ConversationHandlers {
	return &ConversationHandlers{
		store: st,
		log:   logger,
	}
}

// UnreadCount returns how many of the other side's messages in the
// conversation the caller has not read yet. An admin counts customer
// messages; a customer counts admin messages.
// GET /api/conversations/:id/unread_count
func (h *ConversationHandlers) UnreadCount(c *gin.Context) {
	convID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || convID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		return
	}

	role, _ := c.Get(ContextKeyRole)
	otherSideIsAdmin := role != store.RoleAdmin

	count, err := h.store.CountUnreadMessages(c.Request.Context(), convID, otherSideIsAdmin)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", convID).Msg("failed to count unread messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
