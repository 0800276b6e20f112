package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fadilmartias/resume-screener/internal/service"
)

type fakeLLM struct {
	text   string
	err    error
	prompt string
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return f.GenerateText(ctx, prompt)
}

func (f *fakeLLM) Model() string { return "fake" }

func TestExplainUsesLLM(t *testing.T) {
	llm := &fakeLLM{text: "  - Python matched\n- Kubernetes missing\n- Mid level  "}
	res := New(llm, nil).Explain(context.Background(), Request{
		JobTitle:      "Backend Engineer",
		Requirements:  "Python, Kubernetes",
		CandidateText: strings.Repeat("x", maxCandidateChars+100),
		Score:         0.456,
	})

	if res.Source != SourceLLM || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Text != "- Python matched\n- Kubernetes missing\n- Mid level" {
		t.Fatalf("text = %q", res.Text)
	}
	if !strings.Contains(llm.prompt, "0.46") || !strings.Contains(llm.prompt, "'Backend Engineer'") {
		t.Fatalf("prompt missing score or title: %s", llm.prompt)
	}
	if strings.Contains(llm.prompt, strings.Repeat("x", maxCandidateChars+1)) {
		t.Fatalf("candidate text not truncated")
	}
}

func TestExplainPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		gen  *Generator
		want string
	}{
		{name: "no llm", gen: New(nil, nil), want: PlaceholderUnavailable},
		{name: "llm error", gen: New(&fakeLLM{err: service.ErrTransient}, nil), want: PlaceholderFailed},
		{name: "blank answer", gen: New(&fakeLLM{text: "   "}, nil), want: PlaceholderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.gen.Explain(context.Background(), Request{JobTitle: "x"})
			if res.Text != tt.want || res.Source != SourcePlaceholder || res.Err == nil {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}

	res := New(nil, nil).Explain(context.Background(), Request{})
	if !errors.Is(res.Err, service.ErrNotConfigured) {
		t.Fatalf("err = %v", res.Err)
	}
}
