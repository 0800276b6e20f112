package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/embedding"
	"github.com/fadilmartias/resume-screener/internal/explain"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/parser"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/storage"
	"github.com/fadilmartias/resume-screener/internal/vectorindex"
)

var (
	// ErrPersistence is the only error class ProcessApplication returns for a
	// claimed application. The application is safe to re-enqueue.
	ErrPersistence  = errors.New("persistence failure")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
)

type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, job *model.Job, requirementsChanged bool) (int64, error)
	FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
	GetJobs(ctx context.Context, page, pageSize int, activeOnly bool) ([]model.Job, int64, error)
	DeleteJob(ctx context.Context, id uuid.UUID) error
}

type CandidateStore interface {
	FindCandidateByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	UpdateProfile(ctx context.Context, c *model.Candidate) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error
}

type ApplicationStore interface {
	CreateWithCandidate(ctx context.Context, c *model.Candidate, a *model.Application) error
	FindApplicationByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindApplicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Application, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	SaveParsedSummary(ctx context.Context, id uuid.UUID, summary string) error
	SetEmbeddingID(ctx context.Context, id uuid.UUID, embeddingID string) error
	Complete(ctx context.Context, id uuid.UUID, c repository.Completion) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, summary string) error
	Requeue(ctx context.Context, id uuid.UUID, from ...model.Status) (bool, error)
	RecoverStale(ctx context.Context, cutoff time.Time) (int64, error)
	PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	RankedByJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) ([]model.Application, int64, error)
	CountByBatch(ctx context.Context, batchID uuid.UUID) (map[model.Status]int64, error)
	CountByStatus(ctx context.Context, jobID *uuid.UUID) (map[model.Status]int64, error)
}

type ResumeParser interface {
	ParseDocument(ctx context.Context, data []byte, ext string) (*parser.ParsedProfile, error)
}

// Enqueuer hands applications to the workers. Enqueue waits for room;
// TryEnqueue returns at once when the queue is full.
type Enqueuer interface {
	Enqueue(ctx context.Context, id uuid.UUID) (bool, error)
	TryEnqueue(id uuid.UUID) (bool, error)
}

// Deps are the collaborators of the screening pipeline, built once at start.
// Index and Queue may be nil.
type Deps struct {
	Jobs         JobStore
	Candidates   CandidateStore
	Applications ApplicationStore
	Files        storage.FileStore
	Index        vectorindex.Index
	Parser       ResumeParser
	Embedder     embedding.Embedder
	Explainer    explain.Explainer
	Queue        Enqueuer
	Logger       *zap.Logger

	AllowedTypes []string
	MaxFileSize  int64
}

type ScreeningUsecase struct {
	jobs       JobStore
	candidates CandidateStore
	apps       ApplicationStore
	files      storage.FileStore
	index      vectorindex.Index
	parser     ResumeParser
	embedder   embedding.Embedder
	explainer  explain.Explainer
	queue      Enqueuer
	logger     *zap.Logger

	allowedTypes map[string]struct{}
	maxFileSize  int64
}

func NewScreeningUsecase(d Deps) *ScreeningUsecase {
	uc := &ScreeningUsecase{
		jobs:         d.Jobs,
		candidates:   d.Candidates,
		apps:         d.Applications,
		files:        d.Files,
		index:        d.Index,
		parser:       d.Parser,
		embedder:     d.Embedder,
		explainer:    d.Explainer,
		queue:        d.Queue,
		logger:       logger.OrNop(d.Logger).Named("screening"),
		allowedTypes: make(map[string]struct{}, len(d.AllowedTypes)),
		maxFileSize:  d.MaxFileSize,
	}
	for _, t := range d.AllowedTypes {
		uc.allowedTypes[t] = struct{}{}
	}
	return uc
}

// detached keeps failure bookkeeping alive after the caller's ctx is done.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}
