package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/shared/auth"
	"quotes-backend/internal/shared/server/respond"
)

const (
	vendorIDKey    = "vendorId"
	vendorEmailKey = "vendorEmail"
	vendorNameKey  = "vendorName"
	vendorAdminKey = "vendorAdmin"
)

// Auth validates session JWTs and stores the vendor identity in context.
// Consent-flow and health endpoints are reachable without a token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/auth/google/") || path == "/api/v1/health" || path == "/api/v1/metrics" {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(vendorIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(vendorEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(vendorNameKey, claims.Name)
		}
		c.Set(vendorAdminKey, claims.Admin)
		c.Next()
	}
}

// RequireAdmin rejects requests whose session is not flagged as admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !VendorIsAdmin(c) {
			respond.Error(c, http.StatusForbidden, "forbidden", "admin access required", nil)
			return
		}
		c.Next()
	}
}

// VendorIDFromContext fetches the vendor ID set by the auth middleware.
func VendorIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(vendorIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// VendorEmailFromContext fetches the vendor email set by the auth middleware.
func VendorEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(vendorEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// VendorNameFromContext fetches the vendor display name set by the auth middleware.
func VendorNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(vendorNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}

// VendorIsAdmin reports whether the session carries the admin flag.
func VendorIsAdmin(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(vendorAdminKey)
	admin, _ := val.(bool)
	return admin
}
