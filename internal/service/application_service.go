package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
)

var (
	// ErrJobClosed indicates the job no longer accepts applications.
	ErrJobClosed = errors.New("job is closed")
	// ErrAlreadyApplied indicates the candidate already applied to the job.
	ErrAlreadyApplied = errors.New("candidate already applied to this job")
	// ErrCandidateNotOwned indicates the candidate profile belongs to someone else.
	ErrCandidateNotOwned = errors.New("candidate profile belongs to another applicant")
)

// ApplicationService links candidate profiles to jobs.
type ApplicationService interface {
	Apply(ctx context.Context, jobID string, req dto.ApplyRequest, caller access.Identity) (dto.ApplicationResponse, error)
	ListMine(ctx context.Context, applicantID string, page, pageSize int) ([]dto.ApplicationResponse, dto.PageMeta, error)
	List(ctx context.Context, query dto.ApplicationQuery) ([]dto.ApplicationResponse, dto.PageMeta, error)
	Assessments(ctx context.Context, applicationID string, caller access.Identity) ([]dto.AssessmentResponse, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	jobs         repository.JobRepository
	candidates   repository.CandidateRepository
	assessments  repository.AssessmentRepository
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewApplicationService constructs the application service.
func NewApplicationService(
	applications repository.ApplicationRepository,
	jobs repository.JobRepository,
	candidates repository.CandidateRepository,
	assessments repository.AssessmentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationService{
		applications: applications,
		jobs:         jobs,
		candidates:   candidates,
		assessments:  assessments,
		validator:    validate,
		logger:       logger.With().Str("component", "application_service").Logger(),
	}
}

func (s *applicationService) Apply(ctx context.Context, jobID string, req dto.ApplyRequest, caller access.Identity) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicationResponse{}, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrJobNotFound
		}
		return dto.ApplicationResponse{}, err
	}
	if !job.IsOpen() {
		return dto.ApplicationResponse{}, ErrJobClosed
	}

	candidate, err := s.candidates.GetByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrCandidateNotFound
		}
		return dto.ApplicationResponse{}, err
	}
	if candidate.UserID == nil || *candidate.UserID != caller.ID {
		return dto.ApplicationResponse{}, ErrCandidateNotOwned
	}

	if _, err := s.applications.FindByJobAndCandidate(ctx, job.ID, candidate.ID); err == nil {
		return dto.ApplicationResponse{}, ErrAlreadyApplied
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ApplicationResponse{}, err
	}

	application := models.Application{
		JobID:       job.ID,
		CandidateID: candidate.ID,
		ApplicantID: caller.ID,
		Status:      models.ApplicationStatusApplied,
	}
	if err := s.applications.Create(ctx, &application); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ApplicationResponse{}, ErrAlreadyApplied
		}
		return dto.ApplicationResponse{}, err
	}

	s.logger.Info().
		Str("application_id", application.ID).
		Str("job_id", job.ID).
		Str("candidate_id", candidate.ID).
		Msg("application submitted")
	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) ListMine(ctx context.Context, applicantID string, page, pageSize int) ([]dto.ApplicationResponse, dto.PageMeta, error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	applications, total, err := s.applications.List(ctx, repository.ApplicationFilter{
		ApplicantID: applicantID,
		Offset:      offset,
		Limit:       pageSize,
	})
	if err != nil {
		return nil, dto.PageMeta{}, err
	}
	return dto.NewApplicationResponses(applications), pageMeta(page, pageSize, total), nil
}

func (s *applicationService) List(ctx context.Context, query dto.ApplicationQuery) ([]dto.ApplicationResponse, dto.PageMeta, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PageMeta{}, err
	}

	page, pageSize, offset := normalizePage(query.Page, query.PageSize)
	applications, total, err := s.applications.List(ctx, repository.ApplicationFilter{
		JobID:  query.JobID,
		Status: query.Status,
		Offset: offset,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, dto.PageMeta{}, err
	}
	return dto.NewApplicationResponses(applications), pageMeta(page, pageSize, total), nil
}

// Assessments lists the assessments attached to an application. Applicants
// only see their own applications and never the evaluation.
func (s *applicationService) Assessments(ctx context.Context, applicationID string, caller access.Identity) ([]dto.AssessmentResponse, error) {
	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	reviewer := access.ParseRole(string(caller.Role)) != access.RoleApplicant
	if !reviewer && application.ApplicantID != caller.ID {
		return nil, ErrApplicationNotFound
	}

	assessments, err := s.assessments.ListByApplication(ctx, application.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, dto.NewAssessmentResponse(assessment, reviewer))
	}
	return responses, nil
}
