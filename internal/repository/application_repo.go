package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	JobID       string
	ApplicantID string
	Status      string
	Offset      int
	Limit       int
}

// ApplicationRepository persists job applications.
type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id string) (models.Application, error)
	FindByJobAndCandidate(ctx context.Context, jobID, candidateID string) (models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// NewApplicationRepository constructs an application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

type applicationRepository struct {
	db *gorm.DB
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).First(&application, "id = ?", id).Error
	return application, err
}

func (r *applicationRepository) FindByJobAndCandidate(ctx context.Context, jobID, candidateID string) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		First(&application).Error
	return application, err
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Application{})
	if filter.JobID != "" {
		db = db.Where("job_id = ?", filter.JobID)
	}
	if filter.ApplicantID != "" {
		db = db.Where("applicant_id = ?", filter.ApplicantID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	var applications []models.Application
	if err := db.Order("created_at DESC").Find(&applications).Error; err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
