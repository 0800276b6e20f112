package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/extract"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/repository"
)

type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

type SubmitRequest struct {
	JobID   uuid.UUID
	Resume  Upload
	Name    string
	Email   string
	Phone   string
	BatchID *uuid.UUID
}

type RejectedFile struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

type BatchResult struct {
	BatchID      uuid.UUID
	Applications []model.Application
	Rejected     []RejectedFile
}

type BatchStatus struct {
	BatchID uuid.UUID              `json:"batch_id"`
	Total   int64                  `json:"total"`
	Counts  map[model.Status]int64 `json:"counts"`
	Done    bool                   `json:"done"`
}

// Submit stores the résumé, creates a pending application and enqueues it.
// An enqueue failure leaves the application pending for the next sweep.
func (uc *ScreeningUsecase) Submit(ctx context.Context, req SubmitRequest) (*model.Application, error) {
	job, err := uc.activeJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	return uc.submit(ctx, job, req)
}

// SubmitBatch submits each file under one shared batch id. Files that fail
// validation are reported back instead of failing the batch.
func (uc *ScreeningUsecase) SubmitBatch(ctx context.Context, jobID uuid.UUID, files []Upload) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidInput)
	}
	job, err := uc.activeJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	result := &BatchResult{BatchID: batchID, Applications: []model.Application{}, Rejected: []RejectedFile{}}
	for _, f := range files {
		app, err := uc.submit(ctx, job, SubmitRequest{JobID: jobID, Resume: f, BatchID: &batchID})
		switch {
		case errors.Is(err, ErrInvalidInput):
			result.Rejected = append(result.Rejected, RejectedFile{FileName: f.FileName, Reason: err.Error()})
		case err != nil:
			return nil, err
		default:
			result.Applications = append(result.Applications, *app)
		}
	}
	uc.logger.Info("batch submitted",
		zap.String("batch_id", batchID.String()),
		zap.String(logger.FieldJobID, jobID.String()),
		zap.Int("accepted", len(result.Applications)),
		zap.Int("rejected", len(result.Rejected)))
	return result, nil
}

func (uc *ScreeningUsecase) submit(ctx context.Context, job *model.Job, req SubmitRequest) (*model.Application, error) {
	if err := uc.validateUpload(req.Resume); err != nil {
		return nil, err
	}

	fileID, err := uc.files.Upload(ctx, req.Resume.Data, req.Resume.FileName, req.Resume.MimeType)
	if err != nil {
		return nil, fmt.Errorf("store résumé: %w", err)
	}

	candidate := &model.Candidate{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	app := &model.Application{
		JobID:          job.ID,
		ResumeFileID:   fileID,
		ResumeFileName: req.Resume.FileName,
		BatchID:        req.BatchID,
	}
	if err := uc.apps.CreateWithCandidate(ctx, candidate, app); err != nil {
		_ = uc.files.Delete(ctx, fileID)
		return nil, fmt.Errorf("create application: %w", err)
	}
	app.Candidate = candidate

	uc.enqueue(app.ID)
	return app, nil
}

func (uc *ScreeningUsecase) validateUpload(u Upload) error {
	ext := extract.NormalizeExt(u.FileName)
	if !extract.Supported(ext) {
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, ext)
	}
	if len(uc.allowedTypes) > 0 {
		if _, ok := uc.allowedTypes[ext]; !ok {
			return fmt.Errorf("%w: file type %q not allowed", ErrInvalidInput, ext)
		}
	}
	if len(u.Data) == 0 {
		return fmt.Errorf("%w: empty file %q", ErrInvalidInput, u.FileName)
	}
	if uc.maxFileSize > 0 && int64(len(u.Data)) > uc.maxFileSize {
		return fmt.Errorf("%w: file %q exceeds %d bytes", ErrInvalidInput, u.FileName, uc.maxFileSize)
	}
	return nil
}

func (uc *ScreeningUsecase) activeJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job, err := uc.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, fmt.Errorf("%w: job %s is not accepting applications", ErrInvalidState, id)
	}
	return job, nil
}

// enqueue never waits on a full queue; the application is already pending
// and the next sweep picks it up.
func (uc *ScreeningUsecase) enqueue(id uuid.UUID) {
	if uc.queue == nil {
		return
	}
	if _, err := uc.queue.TryEnqueue(id); err != nil {
		uc.logger.Warn("enqueue failed, application stays pending",
			zap.String(logger.FieldApplicationID, id.String()), zap.Error(err))
	}
}

func (uc *ScreeningUsecase) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := uc.apps.FindApplicationByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	return app, err
}

func (uc *ScreeningUsecase) RankedCandidates(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.Application, int64, error) {
	if _, err := uc.GetJob(ctx, jobID); err != nil {
		return nil, 0, err
	}
	return uc.apps.RankedByJob(ctx, jobID, page, pageSize)
}

func (uc *ScreeningUsecase) BatchStatus(ctx context.Context, batchID uuid.UUID) (*BatchStatus, error) {
	counts, err := uc.apps.CountByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	status := &BatchStatus{BatchID: batchID, Counts: counts, Done: true}
	for s, n := range counts {
		status.Total += n
		if !s.Terminal() && n > 0 {
			status.Done = false
		}
	}
	if status.Total == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	return status, nil
}

func (uc *ScreeningUsecase) StatusCounts(ctx context.Context, jobID *uuid.UUID) (map[model.Status]int64, error) {
	return uc.apps.CountByStatus(ctx, jobID)
}

// Reprocess is the explicit operator action that takes a failed or
// completed application back to pending and enqueues it.
func (uc *ScreeningUsecase) Reprocess(ctx context.Context, id uuid.UUID) error {
	ok, err := uc.apps.Requeue(ctx, id, model.StatusFailed, model.StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		app, err := uc.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: application %s is %s", ErrInvalidState, id, app.Status)
	}
	uc.logger.Info("application re-enqueued", zap.String(logger.FieldApplicationID, id.String()))
	uc.enqueue(id)
	return nil
}

// RecoverStale returns applications stuck in processing for longer than
// olderThan to pending. Only safe when no run can still be holding them.
func (uc *ScreeningUsecase) RecoverStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := uc.apps.RecoverStale(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.logger.Warn("recovered stale applications", zap.Int64("count", n))
	}
	return n, nil
}

// EnqueuePending hands every pending application to the queue and returns
// how many were newly queued.
func (uc *ScreeningUsecase) EnqueuePending(ctx context.Context, limit int) (int, error) {
	ids, err := uc.apps.PendingIDs(ctx, limit)
	if err != nil {
		return 0, err
	}
	if uc.queue == nil {
		return 0, nil
	}
	queued := 0
	for _, id := range ids {
		ok, err := uc.queue.Enqueue(ctx, id)
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}
	return queued, nil
}

// PendingIDs lists pending applications, oldest first.
func (uc *ScreeningUsecase) PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	return uc.apps.PendingIDs(ctx, limit)
}
