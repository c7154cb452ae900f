package require

import (
	"log"
	"slices"

	"pulsefeed/internal/middleware"
	"pulsefeed/internal/models"
	"pulsefeed/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthGate resolves the caller's identity and enforces a role allow-list.
// An empty allow-list admits any role, guest included, while still handing
// the identity to the handler. With a non-empty list, guest is just another
// disallowed role: the failure is forbidden, never "unauthenticated".
//
// It is both a Checker (routes that only gate access) and a Requirement
// (routes whose handler needs the caller identity).
type AuthGate struct {
	allowed []models.Role
}

func Auth(allowed ...models.Role) AuthGate {
	return AuthGate{allowed: allowed}
}

func (a AuthGate) Check(c *gin.Context) error {
	_, err := a.resolve(c)
	return err
}

func (a AuthGate) Resolve(c *gin.Context) (any, error) {
	return a.resolve(c)
}

func (a AuthGate) resolve(c *gin.Context) (services.AuthInfo, error) {
	auth := middleware.Auth(c)
	log.Printf("User %d authorized with role %s", auth.UserID, auth.Role)

	if len(a.allowed) > 0 && !slices.Contains(a.allowed, auth.Role) {
		return services.AuthInfo{}, Forbidden()
	}
	return auth, nil
}
