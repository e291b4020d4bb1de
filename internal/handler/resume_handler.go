package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

const resumeFormField = "resume"

// ResumeHandler accepts resumes for analysis.
type ResumeHandler struct {
	service  service.ResumeIntakeService
	maxBytes int64
	logger   zerolog.Logger
}

// NewResumeHandler constructs a resume handler.
func NewResumeHandler(service service.ResumeIntakeService, maxBytes int64, logger zerolog.Logger) *ResumeHandler {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &ResumeHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "resume_handler").Logger(),
	}
}

// Register wires resume routes. limit throttles analysis per caller.
func (h *ResumeHandler) Register(router fiber.Router, limit fiber.Handler) {
	router.Post("/analyze", limit, h.analyze)
}

func (h *ResumeHandler) analyze(c *fiber.Ctx) error {
	input := service.ResumeInput{ApplicantID: middleware.CurrentUserID(c)}

	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		header, err := c.FormFile(resumeFormField)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "No file provided")
		}
		if header.Size > h.maxBytes {
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, service.MsgResumeTooLarge)
		}

		file, err := header.Open()
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, service.MsgResumeUnreadable)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, service.MsgResumeUnreadable)
		}

		input.File = &service.ResumeFile{
			FileName: header.Filename,
			MimeType: header.Header.Get(fiber.HeaderContentType),
			Data:     data,
		}
	} else {
		var req dto.AnalyzeResumeRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
		input.Text = req.Text
	}

	result := h.service.Analyze(requestContext(c), input)
	resp := dto.AnalyzeResumeResponse{
		Success:     result.Success,
		Profile:     result.Profile,
		Error:       result.Error,
		IsDemoMode:  result.IsDemoMode,
		CandidateID: result.CandidateID,
		ResumeURL:   result.ResumeURL,
	}

	if !result.Success {
		status := intakeStatus(result.Error)
		if status >= fiber.StatusInternalServerError {
			requestLogger(h.logger, c).Warn().Str("error", result.Error).Bool("demo", result.IsDemoMode).Msg("resume analysis failed")
		}
		return utils.Fail(c, status, result.Error, resp)
	}

	return utils.SendSuccess(c, "resume analysed", resp)
}

func intakeStatus(message string) int {
	switch message {
	case service.MsgResumeTooShort, service.MsgResumeUnsupported, service.MsgResumeUnreadable:
		return fiber.StatusBadRequest
	case service.MsgResumeTooLarge:
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}
