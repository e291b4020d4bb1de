package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

const identityKey = "identity"

// SessionResolver turns a session token into the caller identity.
type SessionResolver interface {
	Verify(ctx context.Context, token string) (access.Identity, error)
}

// Authenticate requires a valid session, read from the bearer header or the
// session cookie, and stores the identity on the request.
func Authenticate(resolver SessionResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c, cookieName)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		identity, err := resolver.Verify(c.UserContext(), token)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		SetIdentity(c, identity)
		return c.Next()
	}
}

// SessionToken extracts the session token from the Authorization header,
// falling back to the session cookie.
func SessionToken(c *fiber.Ctx, cookieName string) string {
	const bearer = "bearer "
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}

	if cookieName == "" {
		return ""
	}
	return strings.TrimSpace(c.Cookies(cookieName))
}

// ResolveIdentity returns the caller identity or nil when the request has no
// usable session.
func ResolveIdentity(c *fiber.Ctx, resolver SessionResolver, cookieName string) *access.Identity {
	token := SessionToken(c, cookieName)
	if token == "" || resolver == nil {
		return nil
	}

	identity, err := resolver.Verify(c.UserContext(), token)
	if err != nil {
		return nil
	}
	return &identity
}

// SetIdentity binds identity to the request locals.
func SetIdentity(c *fiber.Ctx, identity access.Identity) {
	c.Locals(identityKey, identity)
	c.Locals("user_id", identity.ID)
	c.Locals("user_role", string(identity.Role))
}

// CurrentIdentity returns the identity bound by Authenticate.
func CurrentIdentity(c *fiber.Ctx) (access.Identity, bool) {
	identity, ok := c.Locals(identityKey).(access.Identity)
	return identity, ok
}

// CurrentUserID returns the authenticated user id or an empty string.
func CurrentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
