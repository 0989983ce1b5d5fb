// Package security provides the HTTP-side bearer-token guard for the small
// operational API surface (the websocket handshake has its own token path).
package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	toolsec "shopchat/tools/security"
)

// CtxClaimsKey is where verified claims land in the gin context.
const CtxClaimsKey = "authClaims"

// Middleware verifies an Authorization: Bearer token and stores its claims
// in the request context.
func Middleware(opts toolsec.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"message": "Missing bearer token"}})
			return
		}

		claims, err := toolsec.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"message": "Invalid token"}})
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// Claims fetches verified claims set by Middleware; nil when unauthenticated.
func Claims(c *gin.Context) *toolsec.Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*toolsec.Claims)
	return claims
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}
