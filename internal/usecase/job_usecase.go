package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
)

type JobInput struct {
	Title        string
	Description  string
	Requirements string
	IsActive     *bool
	OwnerID      string
}

func (uc *ScreeningUsecase) CreateJob(ctx context.Context, in JobInput) (*model.Job, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	job := &model.Job{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Requirements: strings.TrimSpace(in.Requirements),
		IsActive:     true,
		OwnerID:      in.OwnerID,
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (uc *ScreeningUsecase) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := uc.jobs.FindJobByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return job, err
}

func (uc *ScreeningUsecase) ListJobs(ctx context.Context, page, pageSize int, activeOnly bool) ([]model.Job, int64, error) {
	return uc.jobs.GetJobs(ctx, page, pageSize, activeOnly)
}

// UpdateJob applies non-empty fields of in. Changing the requirements does
// not rescore anything; applications already scored are flagged stale and
// the count of flagged applications is returned.
func (uc *ScreeningUsecase) UpdateJob(ctx context.Context, id uuid.UUID, in JobInput) (*model.Job, int64, error) {
	job, err := uc.GetJob(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		job.Title = title
	}
	if in.Description != "" {
		job.Description = in.Description
	}
	if in.OwnerID != "" {
		job.OwnerID = in.OwnerID
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
	requirementsChanged := false
	if req := strings.TrimSpace(in.Requirements); req != "" && req != job.Requirements {
		job.Requirements = req
		requirementsChanged = true
	}

	staled, err := uc.jobs.UpdateJob(ctx, job, requirementsChanged)
	if err != nil {
		return nil, 0, err
	}
	if staled > 0 {
		uc.logger.Info("job requirements changed, scores flagged stale",
			zap.String(logger.FieldJobID, id.String()), zap.Int64("applications", staled))
	}
	return job, staled, nil
}

// DeleteJob removes the job, its applications and their indexed vectors.
func (uc *ScreeningUsecase) DeleteJob(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.GetJob(ctx, id); err != nil {
		return err
	}
	if uc.index != nil {
		if _, err := uc.index.Delete(ctx, map[string]any{"job_id": id.String()}); err != nil {
			return fmt.Errorf("delete job vectors: %w", err)
		}
	}
	if err := uc.jobs.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}
