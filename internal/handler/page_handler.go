package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// PageResponse describes the page a caller was allowed to open. The web
// client renders the actual view.
type PageResponse struct {
	Path string      `json:"path"`
	Role access.Role `json:"role,omitempty"`
	Home string      `json:"home,omitempty"`
}

// PageHandler serves gated page routes.
type PageHandler struct {
	resolver middleware.SessionResolver
	cookie   string
	logger   zerolog.Logger
}

// NewPageHandler constructs a page handler.
func NewPageHandler(resolver middleware.SessionResolver, cookie string, logger zerolog.Logger) *PageHandler {
	return &PageHandler{
		resolver: resolver,
		cookie:   cookie,
		logger:   logger.With().Str("component", "page_handler").Logger(),
	}
}

// Register wires the page routes behind guard. It must be registered after
// every API route since it catches all remaining GET paths.
func (h *PageHandler) Register(router fiber.Router, guard fiber.Handler) {
	router.Get("/auth/callback", guard, h.callback)
	router.Get("/*", guard, h.render)
}

// callback finishes a sign-in round trip. A safe relative redirect wins,
// otherwise the caller lands on their role-home. Without a session the
// safe redirect is carried back to login.
func (h *PageHandler) callback(c *fiber.Ctx) error {
	identity := middleware.ResolveIdentity(c, h.resolver, h.cookie)
	if identity == nil {
		if target := access.SafeRedirect(c.Query("redirect"), ""); target != "" {
			return c.Redirect(access.LoginRedirect(target), fiber.StatusFound)
		}
		return c.Redirect(access.LoginPath, fiber.StatusFound)
	}

	target := access.SafeRedirect(c.Query("redirect"), identity.Role.Home())
	return c.Redirect(target, fiber.StatusFound)
}

func (h *PageHandler) render(c *fiber.Ctx) error {
	page := PageResponse{Path: c.Path()}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		page.Role = identity.Role
		page.Home = identity.Role.Home()
	}
	return utils.SendSuccess(c, "page", page)
}
