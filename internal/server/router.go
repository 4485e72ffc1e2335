package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"msc-cert/portal-backend/internal/auth"
	"msc-cert/portal-backend/internal/certificates"
	"msc-cert/portal-backend/internal/database"
)

// Dependencies are the wired components served by the router.
type Dependencies struct {
	DB           *gorm.DB
	Auth         *auth.Service
	Certificates certificates.Service
	Logger       *zap.Logger

	AllowedOrigins []string
	// MediaRoot and MediaPath expose the local object store. Both empty
	// when objects live in S3.
	MediaRoot string
	MediaPath string
}

// NewRouter constructs the gin engine with every route and middleware.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), CORS(deps.AllowedOrigins))

	if deps.MediaRoot != "" && deps.MediaPath != "" {
		router.Static(deps.MediaPath, deps.MediaRoot)
	}

	api := router.Group("/api")
	api.GET("/health/", healthHandler(deps.DB))

	requireAdmin := auth.RequireAdmin(deps.Auth)
	auth.RegisterRoutes(api, auth.NewHandler(deps.Auth, logger), requireAdmin)

	admin := api.Group("", requireAdmin)
	certificates.NewHandler(deps.Certificates, logger).RegisterRoutes(api, admin)

	return router
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"database":  "unavailable",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "ok",
			"timestamp": time.Now(),
		})
	}
}
