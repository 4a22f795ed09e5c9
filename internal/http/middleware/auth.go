package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"olo_mining/internal/service"

	"github.com/gin-gonic/gin"
)

// InstallIDKey is the gin context key holding the authenticated install id.
const InstallIDKey = "install_id"

// TokenParser turns a bearer token into an install id.
type TokenParser interface {
	Parse(token string) (string, error)
}

// Install requires a valid install token in the Authorization header.
func Install(sessions TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		installID, err := sessions.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(InstallIDKey, installID)
		c.Next()
	}
}

// GetInstallID returns the install id set by Install.
func GetInstallID(c *gin.Context) string {
	return c.GetString(InstallIDKey)
}

// AdminGate is satisfied by service.AdminService.
type AdminGate interface {
	RequireAdmin(ctx context.Context, installID string) error
}

// Admin requires the install's admin session flag. Must run after Install.
func Admin(gate AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := gate.RequireAdmin(c.Request.Context(), GetInstallID(c))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, service.ErrAdminRequired):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin login required"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to check admin session"})
		}
	}
}
