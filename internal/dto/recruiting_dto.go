package dto

import (
	"time"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// CreateJobRequest is the payload for posting a job.
type CreateJobRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=255"`
	Department  string   `json:"department" validate:"max=255"`
	Location    string   `json:"location" validate:"max=255"`
	Description string   `json:"description" validate:"required"`
	Skills      []string `json:"skills" validate:"max=50,dive,max=64"`
}

// UpdateJobStatusRequest opens or closes a job.
type UpdateJobStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed"`
}

// ApplyRequest links one of the caller's candidate profiles to a job.
type ApplyRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,uuid"`
}

// JobResponse represents a job posting.
type JobResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Department  string    `json:"department,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewJobResponse converts a job model.
func NewJobResponse(job models.Job) JobResponse {
	skills := []string(job.Skills)
	if skills == nil {
		skills = []string{}
	}
	return JobResponse{
		ID:          job.ID,
		Title:       job.Title,
		Department:  job.Department,
		Location:    job.Location,
		Description: job.Description,
		Skills:      skills,
		Status:      job.Status,
		CreatedAt:   job.CreatedAt,
	}
}

// NewJobResponses converts a slice of jobs.
func NewJobResponses(jobs []models.Job) []JobResponse {
	responses := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, NewJobResponse(job))
	}
	return responses
}

// ApplicationResponse represents a job application.
type ApplicationResponse struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	CandidateID string    `json:"candidate_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewApplicationResponse converts an application model.
func NewApplicationResponse(application models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          application.ID,
		JobID:       application.JobID,
		CandidateID: application.CandidateID,
		ApplicantID: application.ApplicantID,
		Status:      application.Status,
		CreatedAt:   application.CreatedAt,
		UpdatedAt:   application.UpdatedAt,
	}
}

// NewApplicationResponses converts a slice of applications.
func NewApplicationResponses(applications []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		responses = append(responses, NewApplicationResponse(application))
	}
	return responses
}

// CandidateSummary is the list view of a candidate.
type CandidateSummary struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Location        string    `json:"location"`
	ReadinessScore  int       `json:"readiness_score"`
	FlightRisk      string    `json:"flight_risk"`
	Skills          []string  `json:"skills"`
	RecommendedRole string    `json:"recommended_role,omitempty"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// CandidateDetail is the reviewer view of a candidate.
type CandidateDetail struct {
	ID        string                  `json:"id"`
	Profile   models.CandidateProfile `json:"profile"`
	ResumeURL string                  `json:"resume_url,omitempty"`
	Source    string                  `json:"source"`
	CreatedAt time.Time               `json:"created_at"`
}

// CandidateQuery carries the admin listing filters.
type CandidateQuery struct {
	MinScore int    `query:"min_score" validate:"gte=0,lte=100"`
	Skill    string `query:"skill" validate:"max=64"`
	Search   string `query:"search" validate:"max=128"`
	Page     int    `query:"page" validate:"gte=0"`
	PageSize int    `query:"page_size" validate:"gte=0,lte=100"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewCandidateSummary converts a candidate model into its list view.
func NewCandidateSummary(candidate models.Candidate) CandidateSummary {
	skills := []string(candidate.SkillsArray)
	if skills == nil {
		skills = []string{}
	}
	return CandidateSummary{
		ID:              candidate.ID,
		FullName:        candidate.FullName,
		Email:           candidate.Email,
		Location:        candidate.Location,
		ReadinessScore:  candidate.ReadinessScore,
		FlightRisk:      candidate.FlightRisk.Data().RiskLevel,
		Skills:          skills,
		RecommendedRole: candidate.RecommendedRole,
		Source:          candidate.Source,
		CreatedAt:       candidate.CreatedAt,
	}
}

// NewCandidateSummaries converts a slice of candidates.
func NewCandidateSummaries(candidates []models.Candidate) []CandidateSummary {
	summaries := make([]CandidateSummary, 0, len(candidates))
	for _, candidate := range candidates {
		summaries = append(summaries, NewCandidateSummary(candidate))
	}
	return summaries
}

// NewCandidateDetail converts a candidate model into the reviewer view.
func NewCandidateDetail(candidate models.Candidate) CandidateDetail {
	return CandidateDetail{
		ID:        candidate.ID,
		Profile:   candidate.Profile(),
		ResumeURL: candidate.ResumeURL,
		Source:    candidate.Source,
		CreatedAt: candidate.CreatedAt,
	}
}

// ApplicationQuery carries the application listing filters.
type ApplicationQuery struct {
	JobID    string `query:"job_id" validate:"omitempty,uuid"`
	Status   string `query:"status" validate:"omitempty,oneof=applied assessment interview offer rejected"`
	Page     int    `query:"page" validate:"gte=0"`
	PageSize int    `query:"page_size" validate:"gte=0,lte=100"`
}
