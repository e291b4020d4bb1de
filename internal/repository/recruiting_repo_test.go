package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newCandidate(name string, score int, skills ...string) models.Candidate {
	profile := models.CandidateProfile{
		CandidateInfo: models.CandidateInfo{Name: name, Email: name + "@example.com"},
		GCCReadiness:  models.GCCReadiness{Score: score},
		SkillsArray:   skills,
	}
	return models.NewCandidate(profile, "resume text", "", models.CandidateSourceLive)
}

func TestUserRepositoryNormalisesEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := models.User{Email: " Jane@Example.com ", PasswordHash: "hash", Role: "applicant"}
	require.NoError(t, repo.Create(ctx, &user))
	require.NotEmpty(t, user.ID)

	found, err := repo.GetByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	duplicate := models.User{Email: "jane@example.com", PasswordHash: "hash"}
	require.ErrorIs(t, repo.Create(ctx, &duplicate), gorm.ErrDuplicatedKey)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCandidateRepositoryFilters(t *testing.T) {
	repo := NewCandidateRepository(setupTestDB(t))
	ctx := context.Background()

	for _, candidate := range []models.Candidate{
		newCandidate("asha", 85, "Go", "Kubernetes"),
		newCandidate("ben", 62, "Python", "Django"),
		newCandidate("chen", 74, "Golang", "PostgreSQL"),
	} {
		candidate := candidate
		require.NoError(t, repo.Create(ctx, &candidate))
	}

	all, total, err := repo.List(ctx, CandidateFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, "asha", all[0].FullName)

	strong, total, err := repo.List(ctx, CandidateFilter{MinScore: 70})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, strong, 2)

	gophers, _, err := repo.List(ctx, CandidateFilter{Skill: "go"})
	require.NoError(t, err)
	require.Len(t, gophers, 1)
	require.Equal(t, "asha", gophers[0].FullName)

	golang, _, err := repo.List(ctx, CandidateFilter{Skill: "GOLANG", MinScore: 70})
	require.NoError(t, err)
	require.Len(t, golang, 1)
	require.Equal(t, "chen", golang[0].FullName)

	page, total, err := repo.List(ctx, CandidateFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	require.Equal(t, "chen", page[0].FullName)

	loaded, err := repo.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Go", "Kubernetes"}, loaded.Profile().SkillsArray)
}

func TestJobAndApplicationRepositories(t *testing.T) {
	db := setupTestDB(t)
	jobs := NewJobRepository(db)
	applications := NewApplicationRepository(db)
	ctx := context.Background()

	job := models.Job{Title: "Backend Engineer", Status: models.JobStatusOpen}
	require.NoError(t, jobs.Create(ctx, &job))

	closed, err := jobs.UpdateStatus(ctx, job.ID, models.JobStatusClosed)
	require.NoError(t, err)
	require.False(t, closed.IsOpen())

	open, total, err := jobs.List(ctx, JobFilter{Status: models.JobStatusOpen})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, open)

	_, err = jobs.UpdateStatus(ctx, "missing", models.JobStatusOpen)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	application := models.Application{JobID: job.ID, CandidateID: "cand-1", ApplicantID: "user-1", Status: models.ApplicationStatusApplied}
	require.NoError(t, applications.Create(ctx, &application))

	found, err := applications.FindByJobAndCandidate(ctx, job.ID, "cand-1")
	require.NoError(t, err)
	require.Equal(t, application.ID, found.ID)

	require.NoError(t, applications.UpdateStatus(ctx, application.ID, models.ApplicationStatusAssessment))
	mine, total, err := applications.List(ctx, ApplicationFilter{ApplicantID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, models.ApplicationStatusAssessment, mine[0].Status)

	require.ErrorIs(t, applications.UpdateStatus(ctx, "missing", models.ApplicationStatusOffer), gorm.ErrRecordNotFound)
}

func TestAssessmentTransitionIsConditional(t *testing.T) {
	repo := NewAssessmentRepository(setupTestDB(t))
	ctx := context.Background()

	assessment := models.CodingAssessment{
		ApplicationID: "app-1",
		Questions:     datatypes.JSONSlice[models.Question]{{ID: "q1", Title: "Two Sum", Difficulty: models.DifficultyEasy}},
		Status:        models.AssessmentStatusPending,
	}
	require.NoError(t, repo.Create(ctx, &assessment))

	answers := datatypes.JSONSlice[models.Answer]{{QuestionID: "q1", Code: "print(1)", Language: "python"}}
	submitted, err := repo.Transition(ctx, assessment.ID, models.AssessmentStatusPending, models.AssessmentStatusSubmitted, map[string]interface{}{
		"answers": answers,
	})
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusSubmitted, submitted.Status)
	require.Len(t, submitted.Answers, 1)

	_, err = repo.Transition(ctx, assessment.ID, models.AssessmentStatusPending, models.AssessmentStatusSubmitted, nil)
	require.ErrorIs(t, err, ErrStatusConflict)

	evaluation := &models.Evaluation{OverallScore: 72, Recommendation: models.RecommendationHire}
	evaluated, err := repo.Transition(ctx, assessment.ID, models.AssessmentStatusSubmitted, models.AssessmentStatusEvaluated, map[string]interface{}{
		"ai_evaluation": datatypes.NewJSONType(evaluation),
	})
	require.NoError(t, err)
	require.Equal(t, 72, evaluated.Evaluation().OverallScore)

	_, err = repo.Transition(ctx, "missing", models.AssessmentStatusPending, models.AssessmentStatusSubmitted, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := repo.ListByApplication(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}
