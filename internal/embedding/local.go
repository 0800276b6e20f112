package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const defaultLocalDimension = 384

// LocalProvider calls a self-hosted sentence-embedding server speaking the
// text-embeddings-inference protocol: POST /embed {"inputs": "..."} -> [[...]].
// The default dimension matches all-MiniLM-L6-v2.
type LocalProvider struct {
	client    *resty.Client
	dimension int
}

func NewLocalProvider(baseURL string, dimension int, timeout time.Duration) *LocalProvider {
	if dimension <= 0 {
		dimension = defaultLocalDimension
	}
	return &LocalProvider{
		client:    resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(timeout),
		dimension: dimension,
	}
}

func (p *LocalProvider) Name() string   { return "local" }
func (p *LocalProvider) Dimension() int { return p.dimension }

func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"inputs": text, "truncate": true}).
		Post("/embed")
	if err != nil {
		return nil, fmt.Errorf("local embedding request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("local embedding error: %d - %s", resp.StatusCode(), resp.String())
	}

	values := gjson.Get(resp.String(), "0").Array()
	if len(values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v.Float())
	}
	return vector, nil
}
