package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/shared/server/middleware"
	"quotes-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	vendorID := middleware.VendorIDFromContext(c)
	if vendorID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"vendorId": vendorID,
		"admin":    middleware.VendorIsAdmin(c),
	}
	if email := middleware.VendorEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if name := middleware.VendorNameFromContext(c); name != "" {
		response["name"] = name
	}

	respond.JSON(c, http.StatusOK, response)
}
