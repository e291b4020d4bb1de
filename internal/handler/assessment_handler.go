package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/analysis"
	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// AssessmentHandler serves coding assessments to applicants and panelists.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs an assessment handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// RegisterApplicant wires the applicant routes under /assessments.
func (h *AssessmentHandler) RegisterApplicant(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Post("/:id/submit", h.submit)
}

// RegisterPanelist wires the reviewer routes.
func (h *AssessmentHandler) RegisterPanelist(router fiber.Router) {
	router.Post("/applications/:id/assessment", h.generate)
	router.Get("/assessments/:id", h.get)
}

func (h *AssessmentHandler) generate(c *fiber.Ctx) error {
	resp, err := h.service.Generate(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment generated", resp)
}

func (h *AssessmentHandler) submit(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.SubmitAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Answers) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "Assessment ID and answers are required")
	}

	resp, err := h.service.Submit(requestContext(c), c.Params("id"), req.ToModels(), identity)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment submitted", resp)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	resp, err := h.service.Get(requestContext(c), c.Params("id"), identity)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "assessment retrieved", resp)
}

func (h *AssessmentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Assessment not found")
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Application not found")
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Candidate not found")
	case errors.Is(err, service.ErrAssessmentForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAssessmentStateConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIncompleteAnswers), errors.Is(err, service.ErrInvalidAnswers):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, analysis.ErrInvalidQuestionSet):
		return utils.SendError(c, fiber.StatusBadGateway, "Invalid questions format")
	case errors.Is(err, analysis.ErrMalformedResponse), errors.Is(err, analysis.ErrSchemaViolation):
		return utils.SendError(c, fiber.StatusBadGateway, "Failed to parse AI response")
	case errors.Is(err, service.ErrGenerationFailed):
		requestLogger(h.logger, c).Warn().Err(err).Msg("assessment generation failed")
		return utils.SendError(c, fiber.StatusBadGateway, "Failed to generate assessment")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("assessment request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "Failed to process assessment")
	}
}
