package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/handler"
	"github.com/noah-isme/gcc-pulse-api/internal/service"
)

type candidateServiceStub struct {
	query dto.CandidateQuery
}

func (s *candidateServiceStub) List(_ context.Context, query dto.CandidateQuery) ([]dto.CandidateSummary, dto.PageMeta, error) {
	s.query = query
	return []dto.CandidateSummary{{ID: "cand-1", FullName: "Asha", ReadinessScore: 88}}, dto.PageMeta{Page: 1, PageSize: 20, Total: 1}, nil
}

func (s *candidateServiceStub) Get(_ context.Context, id string) (dto.CandidateDetail, error) {
	if id != "cand-1" {
		return dto.CandidateDetail{}, service.ErrCandidateNotFound
	}
	return dto.CandidateDetail{ID: id}, nil
}

func (s *candidateServiceStub) Export(_ context.Context, query dto.CandidateQuery) ([]byte, error) {
	s.query = query
	return []byte("xlsx-bytes"), nil
}

func newCandidateApp(svc service.CandidateService) *fiber.App {
	app := fiber.New()
	h := handler.NewCandidateHandler(svc, discardLogger())
	h.RegisterAdmin(app.Group("/api/v1/admin/candidates"))
	h.RegisterPanelist(app.Group("/api/v1/panelist/candidates"))
	return app
}

func TestCandidateHandlerListParsesFilters(t *testing.T) {
	svc := &candidateServiceStub{}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/candidates?min_score=70&skill=go&page=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 70, svc.query.MinScore)
	require.Equal(t, "go", svc.query.Skill)
	require.Equal(t, 2, svc.query.Page)

	body := decodeEnvelope(t, resp)
	require.Contains(t, string(body.Meta), `"total":1`)
}

func TestCandidateHandlerExportSendsWorkbook(t *testing.T) {
	app := newCandidateApp(&candidateServiceStub{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/candidates/export?skill=go", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "candidates-")

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "xlsx-bytes", string(payload))
}

func TestCandidateHandlerDetailNotFound(t *testing.T) {
	app := newCandidateApp(&candidateServiceStub{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/panelist/candidates/missing", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Candidate not found", decodeEnvelope(t, resp).Message)
}
