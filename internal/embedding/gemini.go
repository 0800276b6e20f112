package embedding

import "context"

const defaultGeminiDimension = 768

type geminiEmbedder interface {
	Embed(ctx context.Context, model, text string, dimension int) ([]float32, error)
}

// GeminiProvider embeds through the Gemini service with a reduced output
// dimensionality so the vector index stays small.
type GeminiProvider struct {
	service   geminiEmbedder
	model     string
	dimension int
}

func NewGeminiProvider(service geminiEmbedder, model string, dimension int) *GeminiProvider {
	if dimension <= 0 {
		dimension = defaultGeminiDimension
	}
	return &GeminiProvider{service: service, model: model, dimension: dimension}
}

func (p *GeminiProvider) Name() string   { return "gemini" }
func (p *GeminiProvider) Dimension() int { return p.dimension }

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.service.Embed(ctx, p.model, text, p.dimension)
}
