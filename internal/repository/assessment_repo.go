package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// ErrStatusConflict is returned when a conditional transition finds the
// record in a different state than expected.
var ErrStatusConflict = errors.New("status transition conflict")

// AssessmentRepository persists coding assessments.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.CodingAssessment) error
	GetByID(ctx context.Context, id string) (models.CodingAssessment, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.CodingAssessment, error)
	Transition(ctx context.Context, id, from, to string, changes map[string]interface{}) (models.CodingAssessment, error)
}

// NewAssessmentRepository constructs an assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

type assessmentRepository struct {
	db *gorm.DB
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.CodingAssessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) GetByID(ctx context.Context, id string) (models.CodingAssessment, error) {
	var assessment models.CodingAssessment
	err := r.db.WithContext(ctx).First(&assessment, "id = ?", id).Error
	return assessment, err
}

func (r *assessmentRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.CodingAssessment, error) {
	var assessments []models.CodingAssessment
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&assessments).Error
	return assessments, err
}

// Transition moves the assessment from one status to the next only when it is
// still in the expected state, applying changes in the same statement.
func (r *assessmentRepository) Transition(ctx context.Context, id, from, to string, changes map[string]interface{}) (models.CodingAssessment, error) {
	updates := make(map[string]interface{}, len(changes)+1)
	for key, value := range changes {
		updates[key] = value
	}
	updates["status"] = to

	db := r.db.WithContext(ctx)
	result := db.Model(&models.CodingAssessment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return models.CodingAssessment{}, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return models.CodingAssessment{}, err
		}
		return models.CodingAssessment{}, ErrStatusConflict
	}

	return r.GetByID(ctx, id)
}
