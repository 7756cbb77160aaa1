package routes

import (
	"sahayak/internal/handlers"

	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(r gin.IRouter, userHandler *handlers.UserHandler, auth gin.HandlerFunc) {
	users := r.Group("/user")
	users.Use(auth)
	{
		users.GET("/profile", userHandler.GetProfile)
		users.GET("/notifications", userHandler.ListNotifications)
		users.POST("/notifications/:id/read", userHandler.MarkNotificationRead)
	}
}

// SetupRealtimeRoutes exposes the authenticated websocket endpoint at path.
func SetupRealtimeRoutes(r gin.IRouter, path string, wsHandler gin.HandlerFunc, auth gin.HandlerFunc) {
	r.GET(path, auth, wsHandler)
}
