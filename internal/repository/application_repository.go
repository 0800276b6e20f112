package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/model"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db}
}

// Completion is written in a single statement so score, breakdown and
// status never disagree.
type Completion struct {
	Score     float64
	Breakdown datatypes.JSON
	Summary   string
}

// CreateWithCandidate inserts a new candidate and its pending application.
func (r *ApplicationRepository) CreateWithCandidate(ctx context.Context, c *model.Candidate, a *model.Application) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		a.CandidateID = c.ID
		a.Status = model.StatusPending
		return tx.Omit("Candidate").Create(a).Error
	})
}

func (r *ApplicationRepository) FindApplicationByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).Preload("Candidate").First(&a, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *ApplicationRepository) FindApplicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Application, error) {
	var apps []model.Application
	if len(ids) == 0 {
		return apps, nil
	}
	err := r.db.WithContext(ctx).Preload("Candidate").Where("id IN ?", ids).Find(&apps).Error
	return apps, err
}

// Claim moves a pending application to processing. It reports false when the
// application was not pending, i.e. another run owns it or it is terminal.
func (r *ApplicationRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Update("status", model.StatusProcessing)
	return res.RowsAffected == 1, res.Error
}

func (r *ApplicationRepository) SaveParsedSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Update("parsed_summary", summary).Error
}

func (r *ApplicationRepository) SetEmbeddingID(ctx context.Context, id uuid.UUID, embeddingID string) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ?", id).
		Update("embedding_id", embeddingID).Error
}

// Complete finishes a processing application. It reports false when the
// application was no longer processing.
func (r *ApplicationRepository) Complete(ctx context.Context, id uuid.UUID, c Completion) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]any{
			"status":          model.StatusCompleted,
			"match_score":     c.Score,
			"score_breakdown": c.Breakdown,
			"score_stale":     false,
			"summary":         c.Summary,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed moves a non-terminal application to failed with summary as the
// user-visible reason.
func (r *ApplicationRepository) MarkFailed(ctx context.Context, id uuid.UUID, summary string) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status IN ?", id, []model.Status{model.StatusPending, model.StatusProcessing}).
		Updates(map[string]any{
			"status":  model.StatusFailed,
			"summary": summary,
		}).Error
}

// Requeue resets an application in one of the from states back to pending,
// clearing its previous result.
func (r *ApplicationRepository) Requeue(ctx context.Context, id uuid.UUID, from ...model.Status) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":          model.StatusPending,
			"match_score":     nil,
			"score_breakdown": nil,
			"score_stale":     false,
			"summary":         "",
		})
	return res.RowsAffected == 1, res.Error
}

// RecoverStale returns applications stuck in processing since before cutoff
// to pending, for example after a crash.
func (r *ApplicationRepository) RecoverStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("status = ? AND updated_at < ?", model.StatusProcessing, cutoff).
		Update("status", model.StatusPending)
	return res.RowsAffected, res.Error
}

func (r *ApplicationRepository) PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("status = ?", model.StatusPending).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Pluck("id", &ids).Error
	return ids, err
}

// RankedByJob lists a job's applications best score first; unscored ones last.
func (r *ApplicationRepository) RankedByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{}).Where("job_id = ?", jobID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []model.Application
	err := q.Preload("Candidate").
		Scopes(paginate(page, pageSize)).
		Order("match_score DESC NULLS LAST").
		Order("created_at ASC").
		Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (map[model.Status]int64, error) {
	return countStatus(r.db.WithContext(ctx).Model(&model.Application{}).Where("batch_id = ?", batchID))
}

// CountByStatus counts applications per status, optionally for one job.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, jobID *uuid.UUID) (map[model.Status]int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{})
	if jobID != nil {
		q = q.Where("job_id = ?", *jobID)
	}
	return countStatus(q)
}

func countStatus(q *gorm.DB) (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Count  int64
	}
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
