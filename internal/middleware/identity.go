package middleware

import (
	"net/http"

	"pulsefeed/internal/services"
	"pulsefeed/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthCookieName is the http-only cookie carrying the auth token.
const AuthCookieName = "X-Auth-Token"

// AuthInfoKey is where the resolved caller identity lives in the gin context.
const AuthInfoKey = "auth_info"

// Identity resolves the auth cookie into the caller's identity on every
// request, before any route-specific role check. An absent or unknown token
// means guest. Must run after Transaction.
func Identity(hash utils.HashParams) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := services.Guest()

		if token, err := c.Cookie(AuthCookieName); err == nil && token != "" {
			auth, err = services.NewAuthService(Tx(c), hash).Authorize(token)
			if err != nil {
				c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		c.Set(AuthInfoKey, auth)
		c.Next()
	}
}

// Auth returns the identity placed by Identity.
func Auth(c *gin.Context) services.AuthInfo {
	return c.MustGet(AuthInfoKey).(services.AuthInfo)
}
