package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/embedding"
	"github.com/fadilmartias/resume-screener/internal/explain"
	"github.com/fadilmartias/resume-screener/internal/extract"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/parser"
	"github.com/fadilmartias/resume-screener/internal/queue"
	"github.com/fadilmartias/resume-screener/internal/repository"
	"github.com/fadilmartias/resume-screener/internal/service"
	"github.com/fadilmartias/resume-screener/internal/storage"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/vectorindex"
)

// pendingSweepLimit caps how many pending applications one sweep enqueues.
const pendingSweepLimit = 500

// Container is the screening pipeline wired from the environment. The API
// server and screenctl share it so both run the same code path.
type Container struct {
	DB          *gorm.DB
	Pool        *queue.Pool
	Usecase     *usecase.ScreeningUsecase
	MaxFileSize int64

	logger *zap.Logger
}

// New connects to the database and builds every collaborator. The pool is
// created but not started.
func New(ctx context.Context, log *zap.Logger) (*Container, error) {
	log = logger.OrNop(log)
	workerCfg := config.LoadWorkerConfig()

	db, err := ConnectDB(log)
	if err != nil {
		return nil, err
	}
	c := &Container{DB: db, logger: log}

	llm, err := newLLM(ctx, log)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(ctx, log)
	if err != nil {
		return nil, err
	}

	// a failing index degrades search only; a dimension mismatch is a
	// configuration error and stops start-up
	var index vectorindex.Index
	pg := vectorindex.New(db, embedder.Dimension(), log)
	err = pg.Ensure(ctx, workerCfg.VectorRecreateOnMismatch)
	var mismatch *vectorindex.DimensionMismatchError
	switch {
	case errors.As(err, &mismatch):
		return nil, fmt.Errorf("%w (set VECTOR_RECREATE_ON_MISMATCH=true to rebuild)", err)
	case err != nil:
		log.Warn("vector index unavailable, similarity search disabled", zap.Error(err))
	default:
		index = pg
	}

	files, err := storage.NewLocalStore(workerCfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload store: %w", err)
	}

	extractor := extract.New(log, extract.WithOCR(workerCfg.PDFOCR))
	resumeParser := parser.New(extractor, llm, log, parser.WithPresentYear(workerCfg.PresentYear))

	c.MaxFileSize = int64(workerCfg.MaxResumeFileSizeMB) << 20
	c.Pool = queue.New(workerCfg.Concurrency, workerCfg.QueueSize, c.process, log)
	c.Usecase = usecase.NewScreeningUsecase(usecase.Deps{
		Jobs:         repository.NewJobRepository(db),
		Candidates:   repository.NewCandidateRepository(db),
		Applications: repository.NewApplicationRepository(db),
		Files:        files,
		Index:        index,
		Parser:       resumeParser,
		Embedder:     embedder,
		Explainer:    explain.New(llm, log),
		Queue:        c.Pool,
		Logger:       log,
		AllowedTypes: workerCfg.AllowedResumeTypes,
		MaxFileSize:  c.MaxFileSize,
	})

	log.Info("screening pipeline ready",
		zap.String("embedding_provider", embedder.Provider()),
		zap.Int("embedding_dimension", embedder.Dimension()),
		zap.Bool("llm_enabled", llm != nil),
		zap.Bool("vector_index", index != nil),
		zap.Int("workers", workerCfg.Concurrency),
	)
	return c, nil
}

func (c *Container) process(ctx context.Context, id uuid.UUID) {
	if err := c.Usecase.ProcessApplication(ctx, id); err != nil {
		c.logger.Error("processing failed", zap.String(logger.FieldApplicationID, id.String()), zap.Error(err))
	}
}

// Sweep enqueues pending applications at once and then every interval
// until ctx is done. A non-positive interval runs a single pass.
func (c *Container) Sweep(ctx context.Context, interval time.Duration) {
	c.sweepOnce(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweepOnce(ctx)
		}
	}
}

func (c *Container) sweepOnce(ctx context.Context) {
	n, err := c.Usecase.EnqueuePending(ctx, pendingSweepLimit)
	if err != nil && !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
		c.logger.Warn("pending sweep failed", zap.Error(err))
	}
	if n > 0 {
		c.logger.Info("pending applications enqueued", zap.Int("count", n))
	}
}

func (c *Container) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewEmbedder builds the configured embedding generator without the rest of
// the pipeline. A Gemini embedder gets its own service, so its circuit
// breaker and timeouts are independent of text generation.
func NewEmbedder(ctx context.Context, log *zap.Logger) (*embedding.Generator, error) {
	log = logger.OrNop(log)
	cfg := config.LoadEmbeddingConfig()
	if !strings.EqualFold(strings.TrimSpace(cfg.Provider), "gemini") {
		return embedding.NewFromConfig(cfg, nil, log)
	}

	gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), embeddingRetryPolicy(config.LoadLLMConfig(), cfg), log)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	return embedding.NewFromConfig(cfg, gemini, log)
}

// embeddingRetryPolicy keeps the LLM backoff but bounds each attempt with
// the embedding request timeout.
func embeddingRetryPolicy(llmCfg *config.LLMConfig, cfg *config.EmbeddingConfig) service.RetryPolicy {
	policy := service.RetryPolicyFromConfig(llmCfg)
	if cfg != nil && cfg.RequestTimeout > 0 {
		policy.RequestTimeout = cfg.RequestTimeout
	}
	return policy
}

// newLLM builds the configured text generator. A missing credential leaves
// the pipeline on its rule-based fallback.
func newLLM(ctx context.Context, log *zap.Logger) (service.TextGenerator, error) {
	llmCfg := config.LoadLLMConfig()
	policy := service.RetryPolicyFromConfig(llmCfg)

	switch strings.ToLower(strings.TrimSpace(llmCfg.Provider)) {
	case "", "none":
		log.Warn("no LLM provider configured, using rule-based parsing only")
		return nil, nil
	case "gemini":
		gemini, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), policy, log)
		if errors.Is(err, service.ErrNotConfigured) {
			log.Warn("LLM disabled", zap.Error(err))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case "openrouter":
		openRouter, err := service.NewOpenRouterService(config.LoadOpenRouterConfig(), policy, log)
		if errors.Is(err, service.ErrNotConfigured) {
			log.Warn("LLM disabled", zap.Error(err))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return openRouter, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", llmCfg.Provider)
	}
}
