package config

import (
	"sync"
)

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

var (
	openRouterConfig *OpenRouterConfig
	openRouterOnce   sync.Once
)

func LoadOpenRouterConfig() *OpenRouterConfig {
	openRouterOnce.Do(func() {
		v := newEnv()
		v.SetDefault("OPENROUTER_MODEL", "openai/gpt-4o-mini")
		v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
		openRouterConfig = &OpenRouterConfig{
			APIKey:  v.GetString("OPENROUTER_API_KEY"),
			Model:   v.GetString("OPENROUTER_MODEL"),
			BaseURL: v.GetString("OPENROUTER_BASE_URL"),
		}
	})
	return openRouterConfig
}
