package embedding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/logger"
)

// Status tags an embedding result so "no signal" and "broken" stay distinguishable.
type Status string

const (
	StatusOK       Status = "ok"
	StatusEmpty    Status = "empty"    // blank input, nothing to embed
	StatusDegraded Status = "degraded" // provider failed; vector is empty
)

type Result struct {
	Vector []float32
	Status Status
	Err    error
}

func (r Result) Empty() bool {
	return len(r.Vector) == 0
}

// Provider produces raw vectors of a fixed dimension. Implementations must be
// safe for concurrent use.
type Provider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder is what the pipeline depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) Result
	Dimension() int
}

// Generator wraps the single active provider and never propagates its
// failures: they degrade to an empty vector tagged StatusDegraded.
type Generator struct {
	provider Provider
	logger   *zap.Logger
}

func NewGenerator(provider Provider, log *zap.Logger) *Generator {
	return &Generator{
		provider: provider,
		logger:   logger.OrNop(log).With(zap.String("embedding_provider", provider.Name())),
	}
}

func (g *Generator) Dimension() int {
	return g.provider.Dimension()
}

func (g *Generator) Provider() string {
	return g.provider.Name()
}

func (g *Generator) Embed(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Status: StatusEmpty}
	}

	vector, err := g.provider.Embed(ctx, text)
	if err == nil && len(vector) != g.provider.Dimension() {
		err = fmt.Errorf("provider returned %d dimensions, want %d", len(vector), g.provider.Dimension())
	}
	if err != nil {
		g.logger.Warn("embedding generation failed", zap.Error(err))
		return Result{Status: StatusDegraded, Err: err}
	}
	return Result{Vector: vector, Status: StatusOK}
}
