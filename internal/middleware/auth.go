package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/asset-gateway/internal/pkg/jwt"
	"github.com/mx-space/asset-gateway/internal/pkg/response"
)

const ContextKeySubject = "auth_subject"

// Auth rejects requests without a valid bearer token signed by tokens.
func Auth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Parse(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// OptionalAuth records the subject of a valid token but never blocks. The rate
// limiter uses it to exempt trusted callers.
func OptionalAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := tokens.Parse(token); err == nil {
				c.Set(ContextKeySubject, claims.Subject)
			}
		}
		c.Next()
	}
}

// IsAuthenticated returns true if an auth middleware accepted the request's token.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := c.Get(ContextKeySubject)
	return ok
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
