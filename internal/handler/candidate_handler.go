package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CandidateHandler serves analysed candidates to reviewers.
type CandidateHandler struct {
	service service.CandidateService
	logger  zerolog.Logger
}

// NewCandidateHandler constructs a candidate handler.
func NewCandidateHandler(service service.CandidateService, logger zerolog.Logger) *CandidateHandler {
	return &CandidateHandler{
		service: service,
		logger:  logger.With().Str("component", "candidate_handler").Logger(),
	}
}

// RegisterAdmin wires listing and export under /admin/candidates.
func (h *CandidateHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/export", h.export)
	router.Get("/:id", h.get)
}

// RegisterPanelist wires the detail view under /panelist/candidates.
func (h *CandidateHandler) RegisterPanelist(router fiber.Router) {
	router.Get("/:id", h.get)
}

func (h *CandidateHandler) list(c *fiber.Ctx) error {
	var query dto.CandidateQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	candidates, meta, err := h.service.List(requestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, candidates, "candidates retrieved", meta)
}

func (h *CandidateHandler) get(c *fiber.Ctx) error {
	candidate, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "candidate retrieved", candidate)
}

func (h *CandidateHandler) export(c *fiber.Ctx) error {
	var query dto.CandidateQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	payload, err := h.service.Export(requestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}

	filename := fmt.Sprintf("candidates-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(payload)
}

func (h *CandidateHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query", validationDetails(err))
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Candidate not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("candidate request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load candidates")
	}
}
