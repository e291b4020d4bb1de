package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// CandidateFilter narrows candidate listings.
type CandidateFilter struct {
	MinScore int
	Skill    string
	Search   string
	Source   string
	Offset   int
	Limit    int
}

// CandidateRepository persists analysed candidates.
type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id string) (models.Candidate, error)
	List(ctx context.Context, filter CandidateFilter) ([]models.Candidate, int64, error)
}

// NewCandidateRepository constructs a candidate repository.
func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

type candidateRepository struct {
	db *gorm.DB
}

func (r *candidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *candidateRepository) GetByID(ctx context.Context, id string) (models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).First(&candidate, "id = ?", id).Error
	return candidate, err
}

func (r *candidateRepository) List(ctx context.Context, filter CandidateFilter) ([]models.Candidate, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Candidate{})

	if filter.MinScore > 0 {
		db = db.Where("readiness_score >= ?", filter.MinScore)
	}
	if skill := strings.Trim(strings.TrimSpace(filter.Skill), `"`); skill != "" {
		// skills_array is a JSON array; matching the quoted element keeps
		// "go" from matching "django".
		db = db.Where("LOWER(CAST(skills_array AS TEXT)) LIKE ?", fmt.Sprintf("%%%q%%", strings.ToLower(skill)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := fmt.Sprintf("%%%s%%", strings.ToLower(search))
		db = db.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
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

	var candidates []models.Candidate
	if err := db.Order("readiness_score DESC, created_at DESC").Find(&candidates).Error; err != nil {
		return nil, 0, err
	}

	return candidates, total, nil
}
