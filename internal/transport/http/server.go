package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/config"
	"github.com/streamvista/chathub/internal/hub"
	"github.com/streamvista/chathub/internal/store"
)

// NewServer builds the HTTP server: REST surface, metrics, and the
// websocket hub endpoint.
func NewServer(h *hub.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiHandlers := NewAPIHandlers(authService, logger)
	notificationHandlers := NewNotificationHandlers(st, logger)
	conversationHandlers := NewConversationHandlers(st, logger)
	authMiddleware := AuthMiddleware(authService, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.GuestLogin)

		api.GET("/notifications", authMiddleware, notificationHandlers.List)
		api.GET("/notifications/unread_count", authMiddleware, notificationHandlers.UnreadCount)
		api.POST("/notifications/read", authMiddleware, notificationHandlers.MarkAllRead)

		api.GET("/conversations/:id/unread_count", authMiddleware, conversationHandlers.UnreadCount)
	}

	router.GET("/ws", gin.WrapH(NewWSHandler(h, authService, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
