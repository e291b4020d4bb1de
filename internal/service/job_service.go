package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
)

var (
	// ErrJobNotFound indicates the job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidJob indicates a posting with no usable content.
	ErrInvalidJob = errors.New("invalid job posting")
)

const openJobsGenerationKey = "jobs:open:generation"

// JobService manages job postings.
type JobService interface {
	Create(ctx context.Context, req dto.CreateJobRequest, postedBy string) (dto.JobResponse, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateJobStatusRequest) (dto.JobResponse, error)
	ListOpen(ctx context.Context, page, pageSize int) ([]dto.JobResponse, dto.PageMeta, error)
	List(ctx context.Context, status string, page, pageSize int) ([]dto.JobResponse, dto.PageMeta, error)
}

type jobService struct {
	repo      repository.JobRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	policy    *bluemonday.Policy
	strict    *bluemonday.Policy
	logger    zerolog.Logger
}

type cachedJobPage struct {
	Items []dto.JobResponse `json:"items"`
	Meta  dto.PageMeta      `json:"meta"`
}

// NewJobService constructs the job service. cache may be nil.
func NewJobService(repo repository.JobRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) JobService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &jobService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		policy:    bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "job_service").Logger(),
	}
}

func (s *jobService) Create(ctx context.Context, req dto.CreateJobRequest, postedBy string) (dto.JobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.JobResponse{}, err
	}

	job := models.Job{
		Title:       strings.TrimSpace(s.strict.Sanitize(req.Title)),
		Department:  strings.TrimSpace(s.strict.Sanitize(req.Department)),
		Location:    strings.TrimSpace(s.strict.Sanitize(req.Location)),
		Description: s.policy.Sanitize(req.Description),
		Skills:      datatypes.JSONSlice[string](normalizeSkills(req.Skills)),
		Status:      models.JobStatusOpen,
		PostedBy:    postedBy,
	}
	if job.Title == "" {
		return dto.JobResponse{}, fmt.Errorf("%w: title is empty after sanitising", ErrInvalidJob)
	}

	if err := s.repo.Create(ctx, &job); err != nil {
		return dto.JobResponse{}, err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("job_id", job.ID).Str("posted_by", postedBy).Msg("job created")
	return dto.NewJobResponse(job), nil
}

func (s *jobService) UpdateStatus(ctx context.Context, id string, req dto.UpdateJobStatusRequest) (dto.JobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.JobResponse{}, err
	}

	job, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JobResponse{}, ErrJobNotFound
		}
		return dto.JobResponse{}, err
	}
	s.invalidate(ctx)

	return dto.NewJobResponse(job), nil
}

func (s *jobService) ListOpen(ctx context.Context, page, pageSize int) ([]dto.JobResponse, dto.PageMeta, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	cacheKey := ""
	if s.cache != nil {
		generation, err := s.cache.Get(ctx, openJobsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read job cache generation")
		}
		cacheKey = fmt.Sprintf("jobs:open:v1:%d:%d:%d", generation, page, pageSize)
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var payload cachedJobPage
			if err := json.Unmarshal(cached, &payload); err == nil {
				return payload.Items, payload.Meta, nil
			}
		}
	}

	jobs, total, err := s.repo.List(ctx, repository.JobFilter{Status: models.JobStatusOpen, Offset: offset, Limit: pageSize})
	if err != nil {
		return nil, dto.PageMeta{}, err
	}

	payload := cachedJobPage{Items: dto.NewJobResponses(jobs), Meta: pageMeta(page, pageSize, total)}
	if cacheKey != "" {
		if encoded, err := json.Marshal(payload); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache open jobs")
			}
		}
	}

	return payload.Items, payload.Meta, nil
}

func (s *jobService) List(ctx context.Context, status string, page, pageSize int) ([]dto.JobResponse, dto.PageMeta, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	jobs, total, err := s.repo.List(ctx, repository.JobFilter{Status: strings.ToLower(strings.TrimSpace(status)), Offset: offset, Limit: pageSize})
	if err != nil {
		return nil, dto.PageMeta{}, err
	}
	return dto.NewJobResponses(jobs), pageMeta(page, pageSize, total), nil
}

// invalidate bumps the cache generation so stale pages are never read again.
func (s *jobService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, openJobsGenerationKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate job cache")
	}
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, skill)
	}
	return result
}
