package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

const (
	SessionHeader    = "X-Session-Id"
	SessionLocalKey  = "session_id"
	DefaultSessionID = "default_user"
)

// SessionMiddleware resolves the caller's session identity from the request
// header. A missing header falls back to a fixed shared identifier; this is
// a convenience for header-less clients, not authentication.
func SessionMiddleware(ctx *fiber.Ctx) error {
	sessionID := ctx.Get(SessionHeader)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	ctx.Locals(SessionLocalKey, sessionID)
	return ctx.Next()
}

// SessionID reads the identity stored by SessionMiddleware.
func SessionID(ctx *fiber.Ctx) string {
	if id, ok := ctx.Locals(SessionLocalKey).(string); ok && id != "" {
		return id
	}
	return DefaultSessionID
}
