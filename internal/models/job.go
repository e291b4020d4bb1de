package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job statuses.
const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

// Job is an open position candidates can apply to.
type Job struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Department  string                      `gorm:"size:255" json:"department"`
	Location    string                      `gorm:"size:255" json:"location"`
	Description string                      `gorm:"type:text" json:"description"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Status      string                      `gorm:"size:16;not null;default:open;index" json:"status"`
	PostedBy    string                      `gorm:"size:36" json:"posted_by"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (j *Job) BeforeCreate(*gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

// IsOpen reports whether the job accepts applications.
func (j Job) IsOpen() bool {
	return j.Status == JobStatusOpen
}
