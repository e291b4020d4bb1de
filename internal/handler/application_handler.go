package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// ApplicationHandler lists applications for applicants and admins.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// RegisterApplicant wires the caller's own applications under /applications.
func (h *ApplicationHandler) RegisterApplicant(router fiber.Router) {
	router.Get("", h.listMine)
	router.Get("/:id/assessments", h.assessments)
}

// RegisterAdmin wires the full listing under /admin/applications.
func (h *ApplicationHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ApplicationHandler) listMine(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var query pageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	applications, meta, err := h.service.ListMine(requestContext(c), identity.ID, query.Page, query.PageSize)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, applications, "applications retrieved", meta)
}

func (h *ApplicationHandler) list(c *fiber.Ctx) error {
	var query dto.ApplicationQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	applications, meta, err := h.service.List(requestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, applications, "applications retrieved", meta)
}

func (h *ApplicationHandler) assessments(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	assessments, err := h.service.Assessments(requestContext(c), c.Params("id"), identity)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessments retrieved", assessments)
}

func (h *ApplicationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query", validationDetails(err))
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Application not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("application request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load applications")
	}
}
