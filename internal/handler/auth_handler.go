package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// CookieConfig controls the session cookie set alongside JSON tokens.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler exposes the identity provider endpoints.
type AuthHandler struct {
	service service.AuthService
	cookie  CookieConfig
	logger  zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, cookie CookieConfig, logger zerolog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "gcc_session"
	}
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. authenticated guards the session endpoint.
func (h *AuthHandler) Register(router fiber.Router, authenticated fiber.Handler) {
	router.Post("/signup", h.signUp)
	router.Post("/signin", h.signIn)
	router.Post("/refresh", h.refresh)
	router.Post("/signout", h.signOut)
	router.Get("/session", authenticated, h.session)
}

func (h *AuthHandler) signUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.SignUp(requestContext(c), req)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setSessionCookie(c, resp.AccessToken, resp.ExpiresAt)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", resp)
}

func (h *AuthHandler) signIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.SignIn(requestContext(c), req)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setSessionCookie(c, resp.AccessToken, resp.ExpiresAt)
	return utils.SendSuccess(c, "signed in", resp)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "refresh_token is required")
	}

	resp, err := h.service.Refresh(requestContext(c), req.RefreshToken)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setSessionCookie(c, resp.AccessToken, resp.ExpiresAt)
	return utils.SendSuccess(c, "session refreshed", resp)
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	token := middleware.SessionToken(c, h.cookie.Name)
	if token == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.SignOut(requestContext(c), token); err != nil && !errors.Is(err, service.ErrInvalidSession) {
		return h.handleError(c, err)
	}

	h.clearSessionCookie(c)
	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) session(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return utils.SendSuccess(c, "session active", dto.NewIdentityResponse(identity))
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(err))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidSession):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRoleNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("auth request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "authentication failed")
	}
}
