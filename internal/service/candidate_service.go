package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/export"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
)

// exportLimit caps the rows a single export renders.
const exportLimit = 5000

// CandidateService exposes the reviewer views of analysed candidates.
type CandidateService interface {
	List(ctx context.Context, query dto.CandidateQuery) ([]dto.CandidateSummary, dto.PageMeta, error)
	Get(ctx context.Context, id string) (dto.CandidateDetail, error)
	Export(ctx context.Context, query dto.CandidateQuery) ([]byte, error)
}

type candidateService struct {
	repo      repository.CandidateRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCandidateService constructs the candidate service.
func NewCandidateService(repo repository.CandidateRepository, validate *validator.Validate, logger zerolog.Logger) CandidateService {
	return &candidateService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "candidate_service").Logger(),
		now:       time.Now,
	}
}

func (s *candidateService) List(ctx context.Context, query dto.CandidateQuery) ([]dto.CandidateSummary, dto.PageMeta, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PageMeta{}, err
	}

	page, pageSize, offset := normalizePage(query.Page, query.PageSize)
	filter := candidateFilter(query)
	filter.Offset = offset
	filter.Limit = pageSize

	candidates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, dto.PageMeta{}, err
	}
	return dto.NewCandidateSummaries(candidates), pageMeta(page, pageSize, total), nil
}

func (s *candidateService) Get(ctx context.Context, id string) (dto.CandidateDetail, error) {
	candidate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CandidateDetail{}, ErrCandidateNotFound
		}
		return dto.CandidateDetail{}, err
	}
	return dto.NewCandidateDetail(candidate), nil
}

func (s *candidateService) Export(ctx context.Context, query dto.CandidateQuery) ([]byte, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	filter := candidateFilter(query)
	filter.Limit = exportLimit

	candidates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if total > exportLimit {
		s.logger.Warn().Int64("total", total).Int("limit", exportLimit).Msg("candidate export truncated")
	}

	filters := map[string]string{
		"skill":  strings.TrimSpace(query.Skill),
		"search": strings.TrimSpace(query.Search),
	}
	if query.MinScore > 0 {
		filters["min_score"] = strconv.Itoa(query.MinScore)
	}

	return export.CandidatesWorkbook(export.CandidateReport{
		Filters:     filters,
		GeneratedAt: s.now(),
		Candidates:  candidates,
	})
}

func candidateFilter(query dto.CandidateQuery) repository.CandidateFilter {
	return repository.CandidateFilter{
		MinScore: query.MinScore,
		Skill:    strings.TrimSpace(query.Skill),
		Search:   strings.TrimSpace(query.Search),
	}
}
