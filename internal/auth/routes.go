package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes
func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, requireAdmin gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login/", handler.Login)
		authGroup.POST("/logout/", requireAdmin, handler.Logout)
		authGroup.GET("/verify/", requireAdmin, handler.Verify)
	}
}
