package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// JobHandler exposes job postings.
type JobHandler struct {
	jobs         service.JobService
	applications service.ApplicationService
	logger       zerolog.Logger
}

// NewJobHandler constructs a job handler.
func NewJobHandler(jobs service.JobService, applications service.ApplicationService, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		jobs:         jobs,
		applications: applications,
		logger:       logger.With().Str("component", "job_handler").Logger(),
	}
}

// RegisterPublic wires the applicant-facing job routes under /jobs.
func (h *JobHandler) RegisterPublic(router fiber.Router) {
	router.Get("", h.listOpen)
	router.Post("/:id/apply", h.apply)
}

// RegisterAdmin wires job management under /admin/jobs.
func (h *JobHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id/status", h.updateStatus)
}

type pageQuery struct {
	Status   string `query:"status"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

func (h *JobHandler) listOpen(c *fiber.Ctx) error {
	var query pageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	jobs, meta, err := h.jobs.ListOpen(requestContext(c), query.Page, query.PageSize)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, jobs, "jobs retrieved", meta)
}

func (h *JobHandler) list(c *fiber.Ctx) error {
	var query pageQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	jobs, meta, err := h.jobs.List(requestContext(c), query.Status, query.Page, query.PageSize)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, jobs, "jobs retrieved", meta)
}

func (h *JobHandler) create(c *fiber.Ctx) error {
	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.jobs.Create(requestContext(c), req, middleware.CurrentUserID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "job created", job)
}

func (h *JobHandler) updateStatus(c *fiber.Ctx) error {
	var req dto.UpdateJobStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	job, err := h.jobs.UpdateStatus(requestContext(c), c.Params("id"), req)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "job updated", job)
}

func (h *JobHandler) apply(c *fiber.Ctx) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	application, err := h.applications.Apply(requestContext(c), c.Params("id"), req, identity)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application submitted", application)
}

func (h *JobHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid request", validationDetails(err))
	case errors.Is(err, service.ErrInvalidJob):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrJobNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Job not found")
	case errors.Is(err, service.ErrCandidateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Candidate not found")
	case errors.Is(err, service.ErrCandidateNotOwned):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrJobClosed), errors.Is(err, service.ErrAlreadyApplied):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("job request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process job request")
	}
}
