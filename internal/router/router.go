package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusd/internal/handler"
	"focusd/internal/middleware"
	"focusd/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	modeHandler *handler.ModeHandler,
	sessionHandler *handler.SessionHandler,
	blockerHandler *handler.BlockerHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	timer := protected.Group("/timer")
	timer.GET("/state", timerHandler.GetState)
	timer.POST("/start", timerHandler.Start)
	timer.POST("/pause", timerHandler.PauseResume)
	timer.POST("/stop", timerHandler.Stop)
	timer.POST("/reset", timerHandler.Reset)

	modes := protected.Group("/modes")
	modes.GET("", modeHandler.List)
	modes.POST("", modeHandler.Create)
	modes.GET("/active", modeHandler.GetActive)
	modes.POST("/deactivate", modeHandler.Deactivate)
	modes.GET("/:id", modeHandler.Get)
	modes.PUT("/:id", modeHandler.Update)
	modes.POST("/:id/activate", modeHandler.Activate)

	sessions := protected.Group("/sessions")
	sessions.GET("", sessionHandler.GetHistory)
	sessions.GET("/stats", sessionHandler.GetStats)

	events := protected.Group("/events")
	events.POST("/foreground", blockerHandler.ForegroundEvent)

	blocker := protected.Group("/blocker")
	blocker.GET("/state", blockerHandler.GetState)
	blocker.POST("/dismiss", blockerHandler.Dismiss)

	return engine
}
