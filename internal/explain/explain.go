package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/service"
)

const maxCandidateChars = 3000

const (
	PlaceholderUnavailable = "LLM explanation unavailable. Candidate skills and experience were compared against the job requirements."
	PlaceholderFailed      = "Explanation could not be generated at this time. Candidate skills and experience were compared against the job requirements."
)

type Source string

const (
	SourceLLM         Source = "llm"
	SourcePlaceholder Source = "placeholder"
)

type Request struct {
	JobTitle      string
	Requirements  string
	CandidateText string
	Score         float64
}

// Result always carries a non-empty Text. Err explains why a placeholder was used.
type Result struct {
	Text   string
	Source Source
	Err    error
}

type Explainer interface {
	Explain(ctx context.Context, req Request) Result
}

type Generator struct {
	llm    service.TextGenerator
	logger *zap.Logger
}

// New builds a generator; llm may be nil.
func New(llm service.TextGenerator, log *zap.Logger) *Generator {
	return &Generator{llm: llm, logger: logger.OrNop(log)}
}

func (g *Generator) Explain(ctx context.Context, req Request) Result {
	if g.llm == nil {
		return Result{Text: PlaceholderUnavailable, Source: SourcePlaceholder, Err: service.ErrNotConfigured}
	}

	text, err := g.llm.GenerateText(ctx, buildPrompt(req))
	if err == nil {
		if text = strings.TrimSpace(text); text == "" {
			err = errors.New("empty explanation")
		}
	}
	if err != nil {
		g.logger.Warn("explanation generation failed", zap.String(logger.FieldStep, "explain"), zap.Error(err))
		return Result{Text: PlaceholderFailed, Source: SourcePlaceholder, Err: err}
	}
	return Result{Text: text, Source: SourceLLM}
}

func buildPrompt(req Request) string {
	candidate := req.CandidateText
	if r := []rune(candidate); len(r) > maxCandidateChars {
		candidate = string(r[:maxCandidateChars])
	}
	return fmt.Sprintf(`
Role: HR assistant.
Task: explain why this candidate got a score of %.2f (0-1 scale) for the role of '%s'.

Job requirements: %s

Candidate résumé snippet:
%s

Output:
Three bullet points explaining the score, covering:
1. Key skills matched.
2. Missing critical requirements, if any.
3. Experience level alignment.
Keep it professional and concise.
`, req.Score, req.JobTitle, req.Requirements, candidate)
}
