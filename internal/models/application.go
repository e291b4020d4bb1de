package models

import (
	"time"

	"gorm.io/gorm"
)

// Application statuses.
const (
	ApplicationStatusApplied    = "applied"
	ApplicationStatusAssessment = "assessment"
	ApplicationStatusInterview  = "interview"
	ApplicationStatusOffer      = "offer"
	ApplicationStatusRejected   = "rejected"
)

// Application links a candidate profile to a job.
type Application struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	JobID       string    `gorm:"size:36;not null;index" json:"job_id"`
	CandidateID string    `gorm:"size:36;not null;index" json:"candidate_id"`
	ApplicantID string    `gorm:"size:36;index" json:"applicant_id"`
	Status      string    `gorm:"size:32;not null;default:applied" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (a *Application) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
