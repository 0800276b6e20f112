package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *model.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// UpdateJob saves job. When requirements changed, every already-scored
// application of the job is flagged score_stale in the same transaction.
// It returns the number of applications flagged.
func (r *JobRepository) UpdateJob(ctx context.Context, job *model.Job, requirementsChanged bool) (int64, error) {
	var staled int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(job).Error; err != nil {
			return err
		}
		if !requirementsChanged {
			return nil
		}
		res := tx.Model(&model.Application{}).
			Where("job_id = ? AND match_score IS NOT NULL", job.ID).
			Update("score_stale", true)
		staled = res.RowsAffected
		return res.Error
	})
	return staled, err
}

func (r *JobRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var j model.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &j, nil
}

func (r *JobRepository) GetJobs(ctx context.Context, page, pageSize int, activeOnly bool) ([]model.Job, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Job{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var jobs []model.Job
	err := q.Scopes(paginate(page, pageSize)).Order("created_at DESC").Find(&jobs).Error
	return jobs, total, err
}

// DeleteJob removes the job with its applications, and candidates left
// without any application.
func (r *JobRepository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidateIDs []uuid.UUID
		if err := tx.Model(&model.Application{}).Where("job_id = ?", id).Pluck("candidate_id", &candidateIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&model.Application{}).Error; err != nil {
			return err
		}
		if len(candidateIDs) > 0 {
			err := tx.Where("id IN ? AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.candidate_id = candidates.id)", candidateIDs).
				Delete(&model.Candidate{}).Error
			if err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Job{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
