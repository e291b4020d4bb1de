package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/handler"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
)

type intakeStub struct {
	last   service.ResumeInput
	result service.IntakeResult
	calls  int
}

func (s *intakeStub) Analyze(_ context.Context, input service.ResumeInput) service.IntakeResult {
	s.calls++
	s.last = input
	return s.result
}

func newResumeApp(svc service.ResumeIntakeService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/resumes", asIdentity(access.Identity{ID: "user-9", Role: access.RoleApplicant}))
	handler.NewResumeHandler(svc, 1024, discardLogger()).Register(group, func(c *fiber.Ctx) error { return c.Next() })
	return app
}

func TestResumeHandlerAnalyzesJSONText(t *testing.T) {
	svc := &intakeStub{result: service.IntakeResult{
		Success:     true,
		Profile:     &models.CandidateProfile{RecommendedRole: "Platform Engineer"},
		CandidateID: "cand-1",
	}}
	app := newResumeApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", strings.NewReader(`{"text":"Senior Go engineer"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)
	require.Contains(t, string(body.Data), `"candidate_id":"cand-1"`)
	require.Equal(t, "Senior Go engineer", svc.last.Text)
	require.Equal(t, "user-9", svc.last.ApplicantID)
	require.Nil(t, svc.last.File)
}

func TestResumeHandlerMapsRejectionsToBadRequest(t *testing.T) {
	svc := &intakeStub{result: service.IntakeResult{Error: service.MsgResumeTooShort, IsDemoMode: true}}
	app := newResumeApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
	require.Equal(t, service.MsgResumeTooShort, body.Message)
	require.Contains(t, string(body.Details), `"is_demo_mode":true`)
}

func TestResumeHandlerReadsMultipartUpload(t *testing.T) {
	svc := &intakeStub{result: service.IntakeResult{Error: service.MsgAnalysisFailed}}
	app := newResumeApp(svc)

	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)
	part, err := writer.CreateFormFile("resume", "cv.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("resume body"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", payload)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	require.NotNil(t, svc.last.File)
	require.Equal(t, "cv.txt", svc.last.File.FileName)
	require.Equal(t, "resume body", string(svc.last.File.Data))
}

func TestResumeHandlerRequiresFileField(t *testing.T) {
	svc := &intakeStub{}
	app := newResumeApp(svc)

	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)
	require.NoError(t, writer.WriteField("note", "no file"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", payload)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No file provided", decodeEnvelope(t, resp).Message)
	require.Zero(t, svc.calls)
}

func TestResumeHandlerRejectsOversizedUpload(t *testing.T) {
	svc := &intakeStub{}
	app := newResumeApp(svc)

	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)
	part, err := writer.CreateFormFile("resume", "cv.txt")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), 4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", payload)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	require.Zero(t, svc.calls)
}
