package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// JobFilter narrows job listings.
type JobFilter struct {
	Status string
	Offset int
	Limit  int
}

// JobRepository persists job postings.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (models.Job, error)
	List(ctx context.Context, filter JobFilter) ([]models.Job, int64, error)
	UpdateStatus(ctx context.Context, id, status string) (models.Job, error)
}

// NewJobRepository constructs a job repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

type jobRepository struct {
	db *gorm.DB
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	return job, err
}

func (r *jobRepository) List(ctx context.Context, filter JobFilter) ([]models.Job, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Job{})
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

	var jobs []models.Job
	if err := db.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *jobRepository) UpdateStatus(ctx context.Context, id, status string) (models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&job, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&job).Update("status", status).Error
	})
	return job, err
}
