// Package middleware provides request filters and security checks for the application.
// File: middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-asistencia/logger"
)

// TokenValidator validates admin bearer tokens.
type TokenValidator interface {
	Validate(token string) bool
}

// ContextTokenKey is where AuthRequired stores the validated token so
// handlers (logout) can read it back.
const ContextTokenKey = "adminToken"

// -------------- authentication middleware --------------

// AuthRequired returns a middleware that gates administrative operations
// behind a valid bearer token. Requests without a token, with a malformed
// Authorization header or with an invalid/expired token are rejected with
// 401 before any business logic runs.
func AuthRequired(sessions TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"mensaje": "No autorizado. Token requerido.",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"mensaje": "Formato de token inválido",
			})
			return
		}

		token := parts[1]
		if !sessions.Validate(token) {
			logger.Warn.Printf("AuthRequired: invalid or expired token on %s %s", c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"mensaje": "Token inválido o expirado",
			})
			return
		}

		c.Set(ContextTokenKey, token)
		c.Next()
	}
}
