package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/dto"
	"github.com/noah-isme/gcc-pulse-api/internal/export"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
)

func TestJobServiceSanitisesAndCachesOpenJobs(t *testing.T) {
	db := setupServiceDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewJobService(repository.NewJobRepository(db), client, time.Minute, newTestValidator(), testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateJobRequest{
		Title:       "<b>Backend</b> Engineer",
		Description: `<p>Build APIs</p><script>alert("x")</script>`,
		Skills:      []string{" Go ", "go", "Postgres", ""},
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "Backend Engineer", created.Title)
	require.Equal(t, "<p>Build APIs</p>", created.Description)
	require.Equal(t, []string{"Go", "Postgres"}, created.Skills)
	require.Equal(t, models.JobStatusOpen, created.Status)

	jobs, meta, err := svc.ListOpen(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, int64(1), meta.Total)

	_, err = svc.UpdateStatus(ctx, created.ID, dto.UpdateJobStatusRequest{Status: models.JobStatusClosed})
	require.NoError(t, err)

	jobs, meta, err = svc.ListOpen(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, jobs)
	require.Zero(t, meta.Total)

	all, _, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = svc.UpdateStatus(ctx, "missing", dto.UpdateJobStatusRequest{Status: models.JobStatusOpen})
	require.ErrorIs(t, err, ErrJobNotFound)

	_, err = svc.UpdateStatus(ctx, created.ID, dto.UpdateJobStatusRequest{Status: "archived"})
	require.Error(t, err)

	_, err = svc.Create(ctx, dto.CreateJobRequest{Title: "<script>x</script>", Description: "desc"}, "admin-1")
	require.ErrorIs(t, err, ErrInvalidJob)
}

func TestApplicationServiceApply(t *testing.T) {
	db := setupServiceDB(t)
	ctx := context.Background()

	jobs := repository.NewJobRepository(db)
	candidates := repository.NewCandidateRepository(db)
	svc := NewApplicationService(
		repository.NewApplicationRepository(db),
		jobs,
		candidates,
		repository.NewAssessmentRepository(db),
		newTestValidator(),
		testLogger(),
	)

	owner := access.Identity{ID: "applicant-1", Role: access.RoleApplicant}
	open := models.Job{Title: "Data Engineer", Description: "Pipelines", Status: models.JobStatusOpen}
	closed := models.Job{Title: "Legacy Engineer", Description: "COBOL", Status: models.JobStatusClosed}
	require.NoError(t, jobs.Create(ctx, &open))
	require.NoError(t, jobs.Create(ctx, &closed))

	candidate := models.NewCandidate(models.CandidateProfile{CandidateInfo: models.CandidateInfo{Name: "Priya"}}, "text", "", models.CandidateSourceLive)
	candidate.UserID = &owner.ID
	require.NoError(t, candidates.Create(ctx, &candidate))

	applied, err := svc.Apply(ctx, open.ID, dto.ApplyRequest{CandidateID: candidate.ID}, owner)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusApplied, applied.Status)
	require.Equal(t, owner.ID, applied.ApplicantID)

	_, err = svc.Apply(ctx, open.ID, dto.ApplyRequest{CandidateID: candidate.ID}, owner)
	require.ErrorIs(t, err, ErrAlreadyApplied)

	_, err = svc.Apply(ctx, closed.ID, dto.ApplyRequest{CandidateID: candidate.ID}, owner)
	require.ErrorIs(t, err, ErrJobClosed)

	_, err = svc.Apply(ctx, open.ID, dto.ApplyRequest{CandidateID: candidate.ID}, access.Identity{ID: "applicant-2", Role: access.RoleApplicant})
	require.ErrorIs(t, err, ErrCandidateNotOwned)

	_, err = svc.Apply(ctx, "missing", dto.ApplyRequest{CandidateID: candidate.ID}, owner)
	require.ErrorIs(t, err, ErrJobNotFound)

	mine, meta, err := svc.ListMine(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, int64(1), meta.Total)

	all, _, err := svc.List(ctx, dto.ApplicationQuery{JobID: open.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)

	assessments, err := svc.Assessments(ctx, applied.ID, owner)
	require.NoError(t, err)
	require.Empty(t, assessments)

	_, err = svc.Assessments(ctx, applied.ID, access.Identity{ID: "applicant-2", Role: access.RoleApplicant})
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestCandidateServiceListAndExport(t *testing.T) {
	db := setupServiceDB(t)
	ctx := context.Background()
	repo := repository.NewCandidateRepository(db)

	for _, seed := range []struct {
		name   string
		score  int
		skills []string
	}{
		{"asha", 91, []string{"Go", "Kubernetes"}},
		{"bruno", 55, []string{"Django"}},
		{"chen", 72, []string{"Go"}},
	} {
		candidate := models.NewCandidate(models.CandidateProfile{
			CandidateInfo: models.CandidateInfo{Name: seed.name},
			GCCReadiness:  models.GCCReadiness{Score: seed.score},
			SkillsArray:   seed.skills,
			FlightRisk:    models.FlightRisk{RiskLevel: models.RiskLow},
		}, "text", "", models.CandidateSourceLive)
		require.NoError(t, repo.Create(ctx, &candidate))
	}

	svc := NewCandidateService(repo, newTestValidator(), testLogger())

	list, meta, err := svc.List(ctx, dto.CandidateQuery{Skill: "go", MinScore: 60})
	require.NoError(t, err)
	require.Equal(t, int64(2), meta.Total)
	require.Equal(t, "asha", list[0].FullName)
	require.Equal(t, "chen", list[1].FullName)

	detail, err := svc.Get(ctx, list[0].ID)
	require.NoError(t, err)
	require.Equal(t, 91, detail.Profile.GCCReadiness.Score)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCandidateNotFound)

	_, _, err = svc.List(ctx, dto.CandidateQuery{MinScore: 140})
	require.Error(t, err)

	payload, err := svc.Export(ctx, dto.CandidateQuery{Skill: "go"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.CandidatesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "asha", rows[1][1])
}
