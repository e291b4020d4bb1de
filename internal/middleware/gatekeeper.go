package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/observability"
)

// PageGuard gates page routes. Public pages are served without a session
// lookup, except login and signup where a signed-in caller is sent home.
// Denials are 302 redirects, never error pages.
func PageGuard(gatekeeper *access.Gatekeeper, resolver SessionResolver, cookieName string, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "gatekeeper").Logger()

	return func(c *fiber.Ctx) error {
		path := normalizePath(c.Path())

		var identity *access.Identity
		if !gatekeeper.IsPublic(path) || gatekeeper.IsAuthRoute(path) {
			identity = ResolveIdentity(c, resolver, cookieName)
		}

		decision := gatekeeper.Decide(path, identity)
		if decision.Allow {
			observability.GatekeeperDecisions().WithLabelValues("allow").Inc()
			if identity != nil {
				SetIdentity(c, *identity)
			}
			return c.Next()
		}

		outcome := "redirect_home"
		if identity == nil {
			outcome = "redirect_login"
		}
		observability.GatekeeperDecisions().WithLabelValues(outcome).Inc()

		log.Debug().
			Str("correlation_id", GetCorrelationID(c)).
			Str("path", path).
			Str("redirect", decision.RedirectTo).
			Msg("page access redirected")

		return c.Redirect(decision.RedirectTo, fiber.StatusFound)
	}
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return strings.ToLower(path)
}
