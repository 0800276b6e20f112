package config

import (
	"sync"
	"time"
)

type EmbeddingConfig struct {
	Provider       string
	Model          string
	Dimension      int
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LocalURL       string
	RequestTimeout time.Duration
}

var (
	embeddingConfig *EmbeddingConfig
	embeddingOnce   sync.Once
)

func LoadEmbeddingConfig() *EmbeddingConfig {
	embeddingOnce.Do(func() {
		v := newEnv()
		v.SetDefault("EMBEDDING_PROVIDER", "hashing")
		v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
		v.SetDefault("LOCAL_EMBEDDING_URL", "http://localhost:8081")
		v.SetDefault("EMBEDDING_REQUEST_TIMEOUT", 30*time.Second)
		embeddingConfig = &EmbeddingConfig{
			Provider:       v.GetString("EMBEDDING_PROVIDER"),
			Model:          v.GetString("EMBEDDING_MODEL"),
			Dimension:      v.GetInt("EMBEDDING_DIMENSION"),
			OpenAIAPIKey:   v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL:  v.GetString("OPENAI_BASE_URL"),
			LocalURL:       v.GetString("LOCAL_EMBEDDING_URL"),
			RequestTimeout: v.GetDuration("EMBEDDING_REQUEST_TIMEOUT"),
		}
	})
	return embeddingConfig
}
