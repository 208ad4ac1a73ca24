package api

import (
	"net/http"
	"strings"

	"shop-backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxEmailKey = "auth_email"
	ctxRoleKey  = "auth_role"
)

// requireAuth validates the bearer token and stores its claims on the context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ctxEmailKey, claims.Email)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// requireAdmin rejects non-admin tokens. Must run after requireAuth.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRoleKey) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// authedEmail returns the email of the authenticated caller.
func authedEmail(c *gin.Context) string {
	return c.GetString(ctxEmailKey)
}
