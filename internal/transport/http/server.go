package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/upload"
)

// NewServer builds the HTTP server: REST API and uploaded files on gin, the
// websocket endpoint on a plain mux in front of it.
func NewServer(hub *core.Hub, authService *auth.Service, uploads *upload.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLog := logger.With().Str("component", "http").Logger()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(&httpLog))
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, &httpLog)
	roomHandlers := NewRoomHandlers(hub, cfg.Rooms, &httpLog)
	uploadHandlers := NewUploadHandlers(hub, uploads, &httpLog)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.POST("/guest", apiHandlers.GuestLogin)

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, &httpLog))
		{
			protected.GET("/rooms", roomHandlers.ListRooms)
			protected.GET("/rooms/:name", roomHandlers.GetRoom)
			protected.POST("/upload", uploadHandlers.Upload)
		}
	}

	router.GET("/uploads/:filename", uploadHandlers.Serve)

	// The websocket endpoint stays outside gin: its response writer refuses to
	// hijack once the upgrade headers have been written.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, authService, cfg, &httpLog))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// IsServerClosed reports whether err only signals a normal shutdown.
func IsServerClosed(err error) bool {
	return err == nil || errors.Is(err, stdhttp.ErrServerClosed)
}
