package dto

import "github.com/noah-isme/gcc-pulse-api/internal/models"

// AnalyzeResumeRequest is the JSON form of a resume submission.
type AnalyzeResumeRequest struct {
	Text string `json:"text"`
}

// AnalyzeResumeResponse mirrors the intake result.
type AnalyzeResumeResponse struct {
	Success     bool                     `json:"success"`
	Profile     *models.CandidateProfile `json:"profile,omitempty"`
	Error       string                   `json:"error,omitempty"`
	IsDemoMode  bool                     `json:"is_demo_mode"`
	CandidateID string                   `json:"candidate_id,omitempty"`
	ResumeURL   string                   `json:"resume_url,omitempty"`
}
