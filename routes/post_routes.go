package routes

import (
	"sahayak/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPostRoutes registers the issue lifecycle endpoints. submitLimit guards
// submissions only.
func SetupPostRoutes(r gin.IRouter, postHandler *handlers.PostHandler, auth, submitLimit gin.HandlerFunc) {
	posts := r.Group("/post")
	posts.Use(auth)
	{
		posts.POST("/submitIssue", submitLimit, postHandler.SubmitIssue)
		posts.GET("/posts", postHandler.ListPosts)

		posts.POST("/:id/accept", postHandler.AcceptHelp)
		posts.POST("/:id/responder-resolve", postHandler.ResponderResolve)
		posts.POST("/:id/resolve", postHandler.Resolve)
	}
}
