package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/admin"
	googleauth "quotes-backend/internal/auth"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/shared/config"
	"quotes-backend/internal/shared/metrics"
	"quotes-backend/internal/shared/server/middleware"
	"quotes-backend/internal/shared/server/respond"
	"quotes-backend/internal/uploads"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config        config.Config
	GoogleAuth    *googleauth.GoogleService
	UploadHandler *uploads.Handler
	QuoteHandler  *quotes.Handler
	AdminHandler  *admin.Handler
	UploadLimiter *middleware.UploadLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	registerMeRoutes(api)

	if deps.UploadHandler != nil {
		group := api.Group("")
		if deps.UploadLimiter != nil {
			group.Use(middleware.RateLimitUploads(deps.UploadLimiter))
		}
		deps.UploadHandler.RegisterRoutes(group)
	}
	if deps.QuoteHandler != nil {
		deps.QuoteHandler.RegisterRoutes(api)
	}
	if deps.AdminHandler != nil {
		deps.AdminHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
