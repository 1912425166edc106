package middleware

import (
	"net/http"
	"strings"

	"paybridge/config"
	"paybridge/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the admin JWT and sets role and claims in context.
func AuthRequired(cfg *config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}
