package config

import (
	"sync"
	"time"
)

// LLMConfig selects the text-generation provider and the retry policy shared
// by résumé parsing and match explanations.
type LLMConfig struct {
	Provider       string
	RequestTimeout time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
}

var (
	llmConfig *LLMConfig
	llmOnce   sync.Once
)

func LoadLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		v := newEnv()
		v.SetDefault("LLM_PROVIDER", "gemini")
		v.SetDefault("LLM_REQUEST_TIMEOUT", 60*time.Second)
		v.SetDefault("LLM_MAX_ATTEMPTS", 3)
		v.SetDefault("LLM_BASE_DELAY", 2*time.Second)
		v.SetDefault("LLM_MAX_DELAY", 10*time.Second)
		llmConfig = &LLMConfig{
			Provider:       v.GetString("LLM_PROVIDER"),
			RequestTimeout: v.GetDuration("LLM_REQUEST_TIMEOUT"),
			MaxAttempts:    v.GetInt("LLM_MAX_ATTEMPTS"),
			BaseDelay:      v.GetDuration("LLM_BASE_DELAY"),
			MaxDelay:       v.GetDuration("LLM_MAX_DELAY"),
		}
	})
	return llmConfig
}
