package config

import (
	"log"
	"sync"
)

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	BaseURL  string
	LogJSON  bool
	LogDebug bool
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		v := newEnv()
		v.SetDefault("APP_NAME", "resume-screener")
		v.SetDefault("APP_PORT", ":8080")

		env := v.GetString("APP_ENV")
		if env == "" {
			env = "development"
			log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
		}
		appConfig = &AppConfig{
			Name:     v.GetString("APP_NAME"),
			Env:      env,
			Port:     v.GetString("APP_PORT"),
			BaseURL:  v.GetString("APP_URL"),
			LogJSON:  v.GetBool("LOG_JSON") || env == "production",
			LogDebug: v.GetBool("LOG_DEBUG"),
		}
	})
	return appConfig
}
