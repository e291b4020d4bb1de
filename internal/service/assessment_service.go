package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/analysis"
	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/observability"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
	"github.com/noah-isme/gcc-pulse-api/pkg/events"
	"github.com/noah-isme/gcc-pulse-api/pkg/sandbox"
)

var (
	// ErrApplicationNotFound indicates the application does not exist.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrCandidateNotFound indicates the candidate does not exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrAssessmentNotFound indicates the assessment does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrAssessmentStateConflict indicates the assessment is not in the state
	// the operation requires.
	ErrAssessmentStateConflict = errors.New("assessment is not awaiting answers")
	// ErrAssessmentForbidden indicates the caller does not own the assessment.
	ErrAssessmentForbidden = errors.New("assessment belongs to another applicant")
	// ErrIncompleteAnswers indicates at least one question has no answer.
	ErrIncompleteAnswers = errors.New("incomplete answers")
	// ErrInvalidAnswers indicates answers that do not line up with the questions.
	ErrInvalidAnswers = errors.New("answers do not match the assessment questions")
	// ErrGenerationFailed wraps question generation failures.
	ErrGenerationFailed = errors.New("failed to generate assessment")
)

// IncompleteAnswersError reports how many questions still lack an answer.
type IncompleteAnswersError struct {
	Remaining int
}

func (e IncompleteAnswersError) Error() string {
	return fmt.Sprintf("Please answer all questions (%d remaining)", e.Remaining)
}

// Is lets callers match with errors.Is(err, ErrIncompleteAnswers).
func (e IncompleteAnswersError) Is(target error) bool {
	return target == ErrIncompleteAnswers
}

// AnswerRunner executes submitted code against sample input.
type AnswerRunner interface {
	Supports(language string) bool
	Run(ctx context.Context, language, source, stdin string) (sandbox.Result, error)
}

// AssessmentService generates, collects and evaluates coding assessments.
type AssessmentService interface {
	Generate(ctx context.Context, applicationID string) (dto.AssessmentResponse, error)
	Submit(ctx context.Context, assessmentID string, answers []models.Answer, caller access.Identity) (dto.AssessmentResponse, error)
	Get(ctx context.Context, assessmentID string, caller access.Identity) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments  repository.AssessmentRepository
	applications repository.ApplicationRepository
	candidates   repository.CandidateRepository
	generator    analysis.QuestionGenerator
	evaluator    analysis.AnswerEvaluator
	runner       AnswerRunner
	publisher    events.Publisher
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewAssessmentService constructs the assessment pipeline. runner is optional.
func NewAssessmentService(
	assessments repository.AssessmentRepository,
	applications repository.ApplicationRepository,
	candidates repository.CandidateRepository,
	generator analysis.QuestionGenerator,
	evaluator analysis.AnswerEvaluator,
	runner AnswerRunner,
	publisher events.Publisher,
	logger zerolog.Logger,
) AssessmentService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &assessmentService{
		assessments:  assessments,
		applications: applications,
		candidates:   candidates,
		generator:    generator,
		evaluator:    evaluator,
		runner:       runner,
		publisher:    publisher,
		logger:       logger.With().Str("component", "assessment_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gcc-pulse-api/internal/service/assessment"),
		now:          time.Now,
	}
}

func (s *assessmentService) Generate(ctx context.Context, applicationID string) (dto.AssessmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.generate", trace.WithAttributes(
		attribute.String("assessment.application_id", applicationID),
	))
	defer span.End()

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return dto.AssessmentResponse{}, s.notFound(span, err, ErrApplicationNotFound)
	}

	candidate, err := s.candidates.GetByID(ctx, application.CandidateID)
	if err != nil {
		return dto.AssessmentResponse{}, s.notFound(span, err, ErrCandidateNotFound)
	}

	questions, err := s.generator.Generate(ctx, analysis.NewSkillProfile(candidate))
	if err != nil {
		observability.AssessmentEvents().WithLabelValues("generate", "failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.logger.Warn().Err(err).Str("application_id", applicationID).Msg("question generation failed")
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	assessment := models.CodingAssessment{
		ApplicationID: application.ID,
		Questions:     datatypes.JSONSlice[models.Question](questions),
		Answers:       datatypes.JSONSlice[models.Answer]{},
		Status:        models.AssessmentStatusPending,
	}
	if err := s.assessments.Create(ctx, &assessment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AssessmentResponse{}, err
	}

	if err := s.applications.UpdateStatus(ctx, application.ID, models.ApplicationStatusAssessment); err != nil {
		s.logger.Warn().Err(err).Str("application_id", application.ID).Msg("failed to move application to assessment")
	}

	observability.AssessmentEvents().WithLabelValues("generate", "success").Inc()
	span.SetStatus(codes.Ok, "generated")
	return dto.NewAssessmentResponse(assessment, true), nil
}

func (s *assessmentService) Submit(ctx context.Context, assessmentID string, answers []models.Answer, caller access.Identity) (dto.AssessmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.submit", trace.WithAttributes(
		attribute.String("assessment.id", assessmentID),
	))
	defer span.End()

	if err := checkAnswerCount(answers, models.QuestionCount); err != nil {
		observability.AssessmentEvents().WithLabelValues("submit", "rejected").Inc()
		return dto.AssessmentResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return dto.AssessmentResponse{}, s.notFound(span, err, ErrAssessmentNotFound)
	}

	if err := s.authorizeSubmit(ctx, assessment, caller); err != nil {
		return dto.AssessmentResponse{}, err
	}

	ordered, err := alignAnswers([]models.Question(assessment.Questions), answers)
	if err != nil {
		observability.AssessmentEvents().WithLabelValues("submit", "rejected").Inc()
		return dto.AssessmentResponse{}, err
	}

	submittedAt := s.now().UTC()
	submitted, err := s.assessments.Transition(ctx, assessment.ID, models.AssessmentStatusPending, models.AssessmentStatusSubmitted, map[string]interface{}{
		"answers":      datatypes.JSONSlice[models.Answer](ordered),
		"submitted_at": submittedAt,
	})
	if err != nil {
		return dto.AssessmentResponse{}, s.transitionError(span, err)
	}
	observability.AssessmentEvents().WithLabelValues("submit", "success").Inc()

	questions := []models.Question(submitted.Questions)
	ordered = s.runAnswers(ctx, questions, ordered)

	evaluation := s.evaluator.Evaluate(ctx, questions, ordered)
	outcome := "success"
	if evaluation.Recommendation == models.RecommendationManualReview {
		outcome = "degraded"
	}

	evaluatedAt := s.now().UTC()
	evaluated, err := s.assessments.Transition(ctx, assessment.ID, models.AssessmentStatusSubmitted, models.AssessmentStatusEvaluated, map[string]interface{}{
		"answers":       datatypes.JSONSlice[models.Answer](ordered),
		"ai_evaluation": datatypes.NewJSONType(&evaluation),
		"evaluated_at":  evaluatedAt,
	})
	if err != nil {
		return dto.AssessmentResponse{}, s.transitionError(span, err)
	}
	observability.AssessmentEvents().WithLabelValues("evaluate", outcome).Inc()

	payload := map[string]interface{}{
		"assessment_id":  evaluated.ID,
		"application_id": evaluated.ApplicationID,
		"overall_score":  evaluation.OverallScore,
		"recommendation": evaluation.Recommendation,
	}
	if err := s.publisher.Publish(ctx, events.TypeAssessmentEvaluated, evaluated.ID, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish assessment event")
	}

	span.SetStatus(codes.Ok, "evaluated")
	return dto.NewAssessmentResponse(evaluated, false), nil
}

func (s *assessmentService) Get(ctx context.Context, assessmentID string, caller access.Identity) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if err := s.authorize(ctx, assessment, caller); err != nil {
		return dto.AssessmentResponse{}, err
	}

	reviewer := access.ParseRole(string(caller.Role)) != access.RoleApplicant
	return dto.NewAssessmentResponse(assessment, reviewer), nil
}

// authorize lets reviewers through and limits applicants to their own
// applications.
func (s *assessmentService) authorize(ctx context.Context, assessment models.CodingAssessment, caller access.Identity) error {
	if access.ParseRole(string(caller.Role)) != access.RoleApplicant {
		return nil
	}
	return s.ownsApplication(ctx, assessment, caller)
}

// authorizeSubmit only admits the applicant who owns the application.
// Reviewers may read an assessment but never answer it.
func (s *assessmentService) authorizeSubmit(ctx context.Context, assessment models.CodingAssessment, caller access.Identity) error {
	if access.ParseRole(string(caller.Role)) != access.RoleApplicant {
		return ErrAssessmentForbidden
	}
	return s.ownsApplication(ctx, assessment, caller)
}

func (s *assessmentService) ownsApplication(ctx context.Context, assessment models.CodingAssessment, caller access.Identity) error {
	application, err := s.applications.GetByID(ctx, assessment.ApplicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentForbidden
		}
		return err
	}
	if application.ApplicantID != caller.ID {
		return ErrAssessmentForbidden
	}
	return nil
}

// runAnswers executes supported answers in the sandbox and attaches their
// output. It is skipped when no runner is configured.
func (s *assessmentService) runAnswers(ctx context.Context, questions []models.Question, answers []models.Answer) []models.Answer {
	if s.runner == nil {
		return answers
	}

	result := make([]models.Answer, len(answers))
	copy(result, answers)
	for i := range result {
		if !s.runner.Supports(result[i].Language) {
			continue
		}
		output, err := s.runner.Run(ctx, result[i].Language, result[i].Code, questions[i].SampleInput)
		if err != nil {
			s.logger.Debug().Err(err).Str("question_id", result[i].QuestionID).Msg("sandbox run failed")
		}
		result[i].Output = sandbox.Describe(output, err)
	}
	return result
}

func (s *assessmentService) notFound(span trace.Span, err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, sentinel.Error())
		return sentinel
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "lookup failed")
	return err
}

func (s *assessmentService) transitionError(span trace.Span, err error) error {
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		span.SetStatus(codes.Error, "state conflict")
		return ErrAssessmentStateConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAssessmentNotFound
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return err
	}
}

// checkAnswerCount rejects a submission that cannot cover expected questions
// without looking at the stored assessment.
func checkAnswerCount(answers []models.Answer, expected int) error {
	if len(answers) > expected {
		return ErrInvalidAnswers
	}

	remaining := expected - len(answers)
	for _, answer := range answers {
		if strings.TrimSpace(answer.Code) == "" {
			remaining++
		}
	}
	if remaining > 0 {
		return IncompleteAnswersError{Remaining: remaining}
	}
	return nil
}

// alignAnswers orders answers to match questions. Answers without a question
// id are matched by position. Each question takes at most one answer, blank
// or not.
func alignAnswers(questions []models.Question, answers []models.Answer) ([]models.Answer, error) {
	if len(answers) > len(questions) {
		return nil, ErrInvalidAnswers
	}

	index := make(map[string]int, len(questions))
	for i, question := range questions {
		index[question.ID] = i
	}

	ordered := make([]models.Answer, len(questions))
	seen := make([]bool, len(questions))
	remaining := len(questions)
	for i, answer := range answers {
		position := i
		if answer.QuestionID != "" {
			pos, ok := index[answer.QuestionID]
			if !ok {
				return nil, ErrInvalidAnswers
			}
			position = pos
		}
		if position >= len(questions) || seen[position] {
			return nil, ErrInvalidAnswers
		}
		seen[position] = true
		if strings.TrimSpace(answer.Code) == "" {
			continue
		}

		answer.QuestionID = questions[position].ID
		ordered[position] = answer
		remaining--
	}

	if remaining > 0 {
		return nil, IncompleteAnswersError{Remaining: remaining}
	}
	return ordered, nil
}
