package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"threadhive/helper"
)

// RequireAuth accepts a JWT from the "token" cookie or a Bearer header and
// attaches the user to the context.
func RequireAuth(secret []byte, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			// when user is logged out the cookie is empty
			tokenString, _ = c.Cookie("token")
		}
		if tokenString == "" {
			logger.Warn("request without credentials", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}

		user, err := helper.ParseToken(secret, tokenString)
		if err != nil {
			logger.Warn("rejected token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(helper.UserKey, user)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
