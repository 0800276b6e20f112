package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/logger"
)

const (
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultGeminiEmbeddingModel = "gemini-embedding-001"
	maxEmbeddingInputChars      = 10000
	defaultCircuitCooldown      = 30 * time.Second
)

// genaiModels is the subset of *genai.Models the service calls.
type genaiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiService struct {
	models            genaiModels
	model             string
	retry             RetryPolicy
	logger            *zap.Logger
	consecutiveErrors atomic.Int32
	circuitBreakerMax int32
	// openedAt is the UnixNano time the breaker last opened or let a trial
	// call through. After cooldown one call is allowed to test the provider.
	openedAt atomic.Int64
	cooldown time.Duration
	now      func() time.Time
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, policy RetryPolicy, log *zap.Logger) (*GeminiService, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGeminiService(client.Models, cfg.Model, policy, log), nil
}

func newGeminiService(models genaiModels, model string, policy RetryPolicy, log *zap.Logger) *GeminiService {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	log = logger.OrNop(log).With(zap.String("ai_provider", "gemini"), zap.String("ai_model", model))
	return &GeminiService{
		models:            models,
		model:             model,
		retry:             policy,
		logger:            log,
		circuitBreakerMax: 5,
		cooldown:          defaultCircuitCooldown,
		now:               time.Now,
	}
}

func (s *GeminiService) Model() string {
	return s.model
}

func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
}

func (s *GeminiService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	})
}

func (s *GeminiService) generate(ctx context.Context, prompt string, genConfig *genai.GenerateContentConfig) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrPermanent)
	}
	if err := s.checkCircuit(); err != nil {
		return "", err
	}

	var text string
	err := s.retry.Do(ctx, s.logger, "generate content", func(ctx context.Context) error {
		result, err := s.models.GenerateContent(ctx, s.model, genai.Text(prompt), genConfig)
		if err != nil {
			return err
		}
		if err := validateGenerateResponse(result); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		text = strings.TrimSpace(result.Text())
		if text == "" {
			return fmt.Errorf("invalid response: empty text")
		}
		return nil
	})
	s.record(err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Embed returns the embedding of text. dimension > 0 requests a reduced
// output dimensionality.
func (s *GeminiService) Embed(ctx context.Context, model, text string, dimension int) ([]float32, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, fmt.Errorf("%w: text for embedding cannot be empty", ErrPermanent)
	}
	if len(trimmedText) > maxEmbeddingInputChars {
		s.logger.Debug("truncating embedding input", zap.Int("length", len(trimmedText)))
		trimmedText = strings.ToValidUTF8(trimmedText[:maxEmbeddingInputChars], "")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiEmbeddingModel
	}
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}

	var embedConfig *genai.EmbedContentConfig
	if dimension > 0 {
		embedConfig = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(dimension))}
	}
	content := []*genai.Content{genai.NewContentFromText(trimmedText, genai.RoleUser)}

	var values []float32
	err := s.retry.Do(ctx, s.logger, "embed content", func(ctx context.Context) error {
		result, err := s.models.EmbedContent(ctx, model, content, embedConfig)
		if err != nil {
			return err
		}
		values, err = validateEmbeddingResponse(result)
		if err != nil {
			return fmt.Errorf("invalid embedding response: %w", err)
		}
		return nil
	})
	s.record(err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *GeminiService) checkCircuit() error {
	n := s.consecutiveErrors.Load()
	if n < s.circuitBreakerMax {
		return nil
	}
	opened := s.openedAt.Load()
	now := s.now().UnixNano()
	if now-opened >= int64(s.cooldown) && s.openedAt.CompareAndSwap(opened, now) {
		s.logger.Info("circuit breaker half-open, trying provider", zap.Int32("consecutive_errors", n))
		return nil
	}
	return fmt.Errorf("%w: circuit breaker open: too many consecutive errors (%d)", ErrTransient, n)
}

func (s *GeminiService) record(err error) {
	if err == nil {
		if s.consecutiveErrors.Swap(0) >= s.circuitBreakerMax {
			s.logger.Info("circuit breaker closed")
		}
		return
	}
	if s.consecutiveErrors.Add(1) >= s.circuitBreakerMax {
		s.openedAt.Store(s.now().UnixNano())
	}
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.consecutiveErrors.Store(0)
	s.logger.Info("circuit breaker reset")
}

func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	n := s.consecutiveErrors.Load()
	return int(n), n >= s.circuitBreakerMax
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}

	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}

	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}

	return nil
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embeddings := resp.Embeddings[0].Values

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}

	for i, val := range embeddings {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}

	return embeddings, nil
}
