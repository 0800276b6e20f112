package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/config"
	"github.com/fadilmartias/resume-screener/internal/logger"
)

const systemPrompt = "You are an HR assistant that screens job applicants."

type OpenRouterService struct {
	client *resty.Client
	model  string
	retry  RetryPolicy
	logger *zap.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, policy RetryPolicy, log *zap.Logger) (*OpenRouterService, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: OPENROUTER_API_KEY not set", ErrNotConfigured)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &OpenRouterService{
		client: client,
		model:  cfg.Model,
		retry:  policy,
		logger: logger.OrNop(log).With(zap.String("ai_provider", "openrouter"), zap.String("ai_model", cfg.Model)),
	}, nil
}

func (s *OpenRouterService) Model() string {
	return s.model
}

func (s *OpenRouterService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, prompt, false)
}

func (s *OpenRouterService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, prompt, true)
}

func (s *OpenRouterService) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrPermanent)
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	var text string
	err := s.retry.Do(ctx, s.logger, "chat completion", func(ctx context.Context) error {
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post("/chat/completions")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: logger.TruncateForLog(resp.String(), 200)}
		}

		text = strings.TrimSpace(gjson.Get(resp.String(), "choices.0.message.content").String())
		if text == "" {
			return fmt.Errorf("no response from LLM")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
