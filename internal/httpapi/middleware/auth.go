package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collabcore/internal/authservice"
)

// AuthMiddleware extracts a bearer token from the Authorization header or a
// ?token= query parameter, validates it with authservice.ParseToken, and
// sets userId/username on the gin context for downstream handlers. path is
// accepted for parity with the config shape sibling services use to point
// at a remote auth verify endpoint, but this middleware validates the token
// itself rather than calling out to one.
func AuthMiddleware(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := authservice.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Type != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not an access token"})
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return rest
		}
		return auth
	}
	return c.Query("token")
}
