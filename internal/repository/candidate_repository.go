package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/model"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db}
}

func (r *CandidateRepository) FindCandidateByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// UpdateProfile stores the parsed profile fields of c.
func (r *CandidateRepository) UpdateProfile(ctx context.Context, c *model.Candidate) error {
	return r.db.WithContext(ctx).Model(c).Select(
		"Name", "Email", "Phone", "Links", "Skills", "ExperienceYears", "Education", "ExtractedText",
	).Updates(c).Error
}

func (r *CandidateRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	var value any
	if len(vector) > 0 {
		v := pgvector.NewVector(vector)
		value = &v
	}
	return r.db.WithContext(ctx).Model(&model.Candidate{}).Where("id = ?", id).Update("embedding", value).Error
}
