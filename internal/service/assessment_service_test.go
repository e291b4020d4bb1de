package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/analysis"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
	"github.com/noah-isme/gcc-pulse-api/pkg/events"
	"github.com/noah-isme/gcc-pulse-api/pkg/sandbox"
)

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(context.Context, analysis.SkillProfile) ([]models.Question, error) {
	return nil, g.err
}

type recordingEvaluator struct {
	result  models.Evaluation
	calls   int
	answers []models.Answer
}

func (e *recordingEvaluator) Evaluate(_ context.Context, _ []models.Question, answers []models.Answer) models.Evaluation {
	e.calls++
	e.answers = answers
	return e.result
}

type runnerStub struct {
	runs int
}

func (r *runnerStub) Supports(language string) bool { return language == "python" }

func (r *runnerStub) Run(_ context.Context, _, _, stdin string) (sandbox.Result, error) {
	r.runs++
	return sandbox.Result{Stdout: "echo:" + stdin}, nil
}

type assessmentFixture struct {
	svc          AssessmentService
	assessments  repository.AssessmentRepository
	applications repository.ApplicationRepository
	evaluator    *recordingEvaluator
	runner       *runnerStub
	publisher    *recordingPublisher
	application  models.Application
	applicant    access.Identity
	panelist     access.Identity
}

func newAssessmentFixture(t *testing.T, generator analysis.QuestionGenerator) assessmentFixture {
	t.Helper()
	db := setupServiceDB(t)
	ctx := context.Background()

	applicant := access.Identity{ID: "applicant-1", Email: "priya@example.com", Role: access.RoleApplicant}
	job := models.Job{Title: "Platform Engineer", Description: "Build the platform", Status: models.JobStatusOpen}
	require.NoError(t, repository.NewJobRepository(db).Create(ctx, &job))

	candidate := models.NewCandidate(analysis.DemoProfile(sampleResume), sampleResume, "", models.CandidateSourceLive)
	candidate.UserID = &applicant.ID
	candidates := repository.NewCandidateRepository(db)
	require.NoError(t, candidates.Create(ctx, &candidate))

	applications := repository.NewApplicationRepository(db)
	application := models.Application{JobID: job.ID, CandidateID: candidate.ID, ApplicantID: applicant.ID, Status: models.ApplicationStatusApplied}
	require.NoError(t, applications.Create(ctx, &application))

	evaluator := &recordingEvaluator{result: models.Evaluation{
		OverallScore:   78,
		QuestionScores: []models.QuestionScore{{QuestionID: "q1", Score: 80, Feedback: "Clean"}},
		Strengths:      []string{"Readable code"},
		Weaknesses:     []string{"Edge cases"},
		Recommendation: models.RecommendationHire,
	}}
	runner := &runnerStub{}
	publisher := &recordingPublisher{}
	assessments := repository.NewAssessmentRepository(db)

	svc := NewAssessmentService(assessments, applications, candidates, generator, evaluator, runner, publisher, testLogger())
	return assessmentFixture{
		svc:          svc,
		assessments:  assessments,
		applications: applications,
		evaluator:    evaluator,
		runner:       runner,
		publisher:    publisher,
		application:  application,
		applicant:    applicant,
		panelist:     access.Identity{ID: "panelist-1", Role: access.RolePanelist},
	}
}

func fullAnswers(count int) []models.Answer {
	answers := make([]models.Answer, count)
	for i := range answers {
		answers[i] = models.Answer{Code: "print(input())", Language: "python"}
	}
	return answers
}

func TestAssessmentGenerateStoresPendingAssessment(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()

	resp, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusPending, resp.Status)
	require.Len(t, resp.Questions, models.QuestionCount)

	application, err := fx.applications.GetByID(ctx, fx.application.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusAssessment, application.Status)
}

func TestAssessmentGenerateErrors(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	_, err := fx.svc.Generate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrApplicationNotFound)

	failing := newAssessmentFixture(t, failingGenerator{err: analysis.ErrInvalidQuestionSet})
	_, err = failing.svc.Generate(context.Background(), failing.application.ID)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.ErrorIs(t, err, analysis.ErrInvalidQuestionSet)

	list, err := failing.assessments.ListByApplication(context.Background(), failing.application.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestAssessmentSubmitRejectsIncompleteAnswers(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	answers := fullAnswers(models.QuestionCount)
	answers[2].Code = "   "
	answers = answers[:4]

	_, err = fx.svc.Submit(ctx, generated.ID, answers, fx.applicant)
	require.ErrorIs(t, err, ErrIncompleteAnswers)
	require.EqualError(t, err, "Please answer all questions (2 remaining)")
	require.Zero(t, fx.evaluator.calls)

	stored, err := fx.assessments.GetByID(ctx, generated.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusPending, stored.Status)
}

func TestAssessmentSubmitRejectsUnknownQuestions(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	answers := fullAnswers(models.QuestionCount)
	answers[0].QuestionID = "q99"
	_, err = fx.svc.Submit(ctx, generated.ID, answers, fx.applicant)
	require.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestAssessmentSubmitEvaluatesAndPublishes(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	resp, err := fx.svc.Submit(ctx, generated.ID, fullAnswers(models.QuestionCount), fx.applicant)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusEvaluated, resp.Status)
	require.Nil(t, resp.Evaluation)
	require.Empty(t, resp.Answers)

	require.Equal(t, 1, fx.evaluator.calls)
	require.Equal(t, models.QuestionCount, fx.runner.runs)
	require.Equal(t, "q1", fx.evaluator.answers[0].QuestionID)
	require.Contains(t, fx.evaluator.answers[0].Output, "stdout:\necho:")

	review, err := fx.svc.Get(ctx, generated.ID, fx.panelist)
	require.NoError(t, err)
	require.NotNil(t, review.Evaluation)
	require.Equal(t, 78, review.Evaluation.OverallScore)
	require.Len(t, review.Answers, models.QuestionCount)
	require.NotNil(t, review.SubmittedAt)
	require.NotNil(t, review.EvaluatedAt)

	published := fx.publisher.Events()
	require.Len(t, published, 1)
	require.Equal(t, events.TypeAssessmentEvaluated, published[0].Type)
	require.Equal(t, generated.ID, published[0].Subject)

	_, err = fx.svc.Submit(ctx, generated.ID, fullAnswers(models.QuestionCount), fx.applicant)
	require.ErrorIs(t, err, ErrAssessmentStateConflict)
	require.Equal(t, 1, fx.evaluator.calls)
}

func TestAssessmentSubmitStoresDegradedEvaluation(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	fx.evaluator.result = analysis.DegradedEvaluation("model unavailable")
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	_, err = fx.svc.Submit(ctx, generated.ID, fullAnswers(models.QuestionCount), fx.applicant)
	require.NoError(t, err)

	stored, err := fx.assessments.GetByID(ctx, generated.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusEvaluated, stored.Status)
	require.Equal(t, models.RecommendationManualReview, stored.Evaluation().Recommendation)
	require.Zero(t, stored.Evaluation().OverallScore)
}

func TestAssessmentAccessIsLimitedToOwner(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	stranger := access.Identity{ID: "applicant-2", Role: access.RoleApplicant}
	_, err = fx.svc.Get(ctx, generated.ID, stranger)
	require.ErrorIs(t, err, ErrAssessmentForbidden)

	_, err = fx.svc.Submit(ctx, generated.ID, fullAnswers(models.QuestionCount), stranger)
	require.ErrorIs(t, err, ErrAssessmentForbidden)

	_, err = fx.svc.Get(ctx, "missing", fx.panelist)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAlignAnswersMatchesByQuestionID(t *testing.T) {
	questions := []models.Question{{ID: "a"}, {ID: "b"}}
	ordered, err := alignAnswers(questions, []models.Answer{
		{QuestionID: "b", Code: "second"},
		{QuestionID: "a", Code: "first"},
	})
	require.NoError(t, err)
	require.Equal(t, "first", ordered[0].Code)
	require.Equal(t, "second", ordered[1].Code)

	_, err = alignAnswers(questions, []models.Answer{{QuestionID: "a", Code: "x"}, {QuestionID: "a", Code: "y"}})
	require.True(t, errors.Is(err, ErrInvalidAnswers))

	_, err = alignAnswers(questions, []models.Answer{{Code: "x"}, {Code: "y"}, {Code: "z"}})
	require.ErrorIs(t, err, ErrInvalidAnswers)
}

func TestAssessmentSubmitRejectsExtraAnswers(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	answers := append([]models.Answer{{QuestionID: "q1", Code: "  "}}, fullAnswers(models.QuestionCount)...)
	_, err = fx.svc.Submit(ctx, generated.ID, answers, fx.applicant)
	require.ErrorIs(t, err, ErrInvalidAnswers)
	require.Zero(t, fx.evaluator.calls)

	stored, err := fx.assessments.GetByID(ctx, generated.ID)
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusPending, stored.Status)
}

func TestAssessmentSubmitChecksAnswersBeforeLookup(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})

	answers := fullAnswers(models.QuestionCount)
	answers[1].Code = ""
	_, err := fx.svc.Submit(context.Background(), "missing", answers, fx.applicant)
	require.ErrorIs(t, err, ErrIncompleteAnswers)
	require.EqualError(t, err, "Please answer all questions (1 remaining)")
}

func TestAssessmentSubmitIsApplicantOnly(t *testing.T) {
	fx := newAssessmentFixture(t, analysis.OfflineQuestionGenerator{})
	ctx := context.Background()
	generated, err := fx.svc.Generate(ctx, fx.application.ID)
	require.NoError(t, err)

	admin := access.Identity{ID: "admin-1", Role: access.RoleRecruitingAdmin}
	for _, reviewer := range []access.Identity{fx.panelist, admin} {
		_, err = fx.svc.Submit(ctx, generated.ID, fullAnswers(models.QuestionCount), reviewer)
		require.ErrorIs(t, err, ErrAssessmentForbidden)
	}
	require.Zero(t, fx.evaluator.calls)

	_, err = fx.svc.Get(ctx, generated.ID, fx.panelist)
	require.NoError(t, err)
}

func TestAlignAnswersCountsBlankAnswersAsSeen(t *testing.T) {
	questions := []models.Question{{ID: "a"}, {ID: "b"}}

	_, err := alignAnswers(questions, []models.Answer{{QuestionID: "a", Code: " "}, {QuestionID: "a", Code: "x"}})
	require.ErrorIs(t, err, ErrInvalidAnswers)

	_, err = alignAnswers(questions, []models.Answer{{Code: " "}, {QuestionID: "a", Code: "x"}})
	require.ErrorIs(t, err, ErrInvalidAnswers)

	_, err = alignAnswers(questions, []models.Answer{{QuestionID: "b", Code: "x"}})
	require.EqualError(t, err, "Please answer all questions (1 remaining)")

	_, err = alignAnswers(questions, []models.Answer{{Code: "x"}, {Code: "\t"}})
	require.ErrorIs(t, err, ErrIncompleteAnswers)
}
