package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/middleware"
)

// RegisterRoutes wires every API route onto the given group. credentialLimit
// guards the endpoints that accept or mint credentials; pass nil to disable
// rate limiting (tests).
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, credentialLimit gin.HandlerFunc) {
	guard := func(route gin.HandlerFunc) []gin.HandlerFunc {
		if credentialLimit == nil {
			return []gin.HandlerFunc{route}
		}
		return []gin.HandlerFunc{credentialLimit, route}
	}

	usersGroup := api.Group("/users")
	{
		usersGroup.POST("/register", guard(h.Register)...)
		usersGroup.POST("/login", guard(h.Login)...)
		usersGroup.POST("/refresh-token", guard(h.Refresh)...)

		authed := usersGroup.Group("")
		authed.Use(h.AuthMiddleware())
		{
			authed.POST("/logout", h.Logout)
			authed.GET("/current-user", h.GetCurrentUser)
			authed.PATCH("/become-creator", h.BecomeCreator)
		}
	}

	pubsGroup := api.Group("/publications")
	{
		// Public reads
		pubsGroup.GET("/:publicationId", h.GetPublication)
		pubsGroup.GET("/:publicationId/posts", h.ListPosts)

		authed := pubsGroup.Group("")
		authed.Use(h.AuthMiddleware())
		{
			authed.POST("", h.CreatePublication)
			authed.GET("/my-publications", h.ListMyPublications)
			authed.PATCH("/:publicationId", h.UpdatePublication)
			authed.PATCH("/logo/:publicationId", middleware.RateLimitUpload(), h.UploadLogo)
			authed.DELETE("/:publicationId", h.DeletePublication)

			authed.POST("/:publicationId/posts", h.CreatePost)
			authed.POST("/:publicationId/subscribe", h.Subscribe)
			authed.DELETE("/:publicationId/subscribe", h.Unsubscribe)
		}
	}
}
