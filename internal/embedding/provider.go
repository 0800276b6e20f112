package embedding

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/config"
)

// NewFromConfig builds the single active provider. An unknown provider or a
// missing credential is a configuration error, not a per-record one.
func NewFromConfig(cfg *config.EmbeddingConfig, gemini geminiEmbedder, log *zap.Logger) (*Generator, error) {
	var provider Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "hashing", "mock":
		provider = NewHashingProvider(cfg.Dimension)
	case "local":
		provider = NewLocalProvider(cfg.LocalURL, cfg.Dimension, cfg.RequestTimeout)
	case "openai":
		p, err := NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.Dimension, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		provider = p
	case "gemini":
		if gemini == nil {
			return nil, fmt.Errorf("gemini embedding provider requires GEMINI_API_KEY")
		}
		provider = NewGeminiProvider(gemini, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return NewGenerator(provider, log), nil
}
