package service

import "context"

// TextGenerator is the LLM capability shared by résumé parsing and match
// explanations. Implementations must be safe for concurrent use.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON asks the model for a strict JSON object.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Model() string
}
