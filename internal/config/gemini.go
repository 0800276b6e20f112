package config

import (
	"sync"
)

type GeminiConfig struct {
	APIKey string
	Model  string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		v := newEnv()
		v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")

		apiKey := v.GetString("GEMINI_API_KEY")
		if apiKey == "" {
			apiKey = v.GetString("GOOGLE_API_KEY")
		}
		geminiConfig = &GeminiConfig{
			APIKey: apiKey,
			Model:  v.GetString("GEMINI_MODEL"),
		}
	})
	return geminiConfig
}
