package parser

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fadilmartias/resume-screener/internal/extract"
	"github.com/fadilmartias/resume-screener/internal/service"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.GenerateJSON(ctx, prompt)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) Model() string { return "fake" }

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

func TestFallbackExperienceYears(t *testing.T) {
	p := New(nil, nil, nil, WithPresentYear(2024))
	profile, err := p.Parse(context.Background(), "Jane Doe\nAcme 2019-2022 engineer\nGlobex 2022-present lead")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ExperienceYears != 5.0 {
		t.Fatalf("experience = %v, want 5.0", profile.ExperienceYears)
	}
	if profile.Name != "Jane Doe" {
		t.Fatalf("name = %q", profile.Name)
	}
	if profile.Outcome != OutcomeFallback || !errors.Is(profile.LLMErr, service.ErrNotConfigured) {
		t.Fatalf("outcome = %s, llm err = %v", profile.Outcome, profile.LLMErr)
	}
}

func TestExperienceYears(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "none", text: "no dates here", want: 0},
		{name: "spaced", text: "2015 - 2018", want: 3},
		{name: "upper present", text: "2020 - Present", want: 4},
		{name: "backwards ignored", text: "2022-2019", want: 0},
		{name: "pre 2000 ignored", text: "1998-2001", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := experienceYears(tt.text, 2024); got != tt.want {
				t.Fatalf("experienceYears(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDeterministicFieldsWinOverLLM(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + `{"name":"J. Doe","skills":["Go","Python","go"],"experience_years":7.5,"summary":"Backend engineer.","education":[{"degree":"BSc","school":"MIT"}],"email":"wrong@x.io"}` + "\n```"}
	p := New(nil, llm, nil, WithPresentYear(2024))

	text := "Jane Doe\njane.doe@example.com | +1 555-123-4567\nhttps://github.com/janedoe https://janedoe.dev\n2019-2022"
	profile, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Outcome != OutcomeLLM {
		t.Fatalf("outcome = %s", profile.Outcome)
	}
	if profile.Email != "jane.doe@example.com" {
		t.Fatalf("email = %q", profile.Email)
	}
	if profile.Phone != "+1 555-123-4567" {
		t.Fatalf("phone = %q", profile.Phone)
	}
	if want := []string{"https://github.com/janedoe", "https://janedoe.dev"}; !reflect.DeepEqual(profile.Links, want) {
		t.Fatalf("links = %v", profile.Links)
	}
	if profile.Name != "J. Doe" || profile.ExperienceYears != 7.5 {
		t.Fatalf("llm fields not used: %+v", profile)
	}
	if want := []string{"Go", "Python"}; !reflect.DeepEqual(profile.Skills, want) {
		t.Fatalf("skills = %v, want %v", profile.Skills, want)
	}
	if want := []string{"BSc, MIT"}; !reflect.DeepEqual(profile.Education, want) {
		t.Fatalf("education = %v", profile.Education)
	}
	if profile.RawText != text {
		t.Fatalf("raw text not carried through")
	}
}

func TestMissingLLMFieldsUseFallback(t *testing.T) {
	llm := &fakeLLM{response: `{"summary":"Data engineer."}`}
	p := New(nil, llm, nil, WithPresentYear(2024))

	profile, err := p.Parse(context.Background(), "Jane Doe\nPython and SQL, 2020-2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Summary != "Data engineer." {
		t.Fatalf("summary = %q", profile.Summary)
	}
	if profile.Name != "Jane Doe" || profile.ExperienceYears != 3 {
		t.Fatalf("fallback fields not used: %+v", profile)
	}
	if want := []string{"python", "sql"}; !reflect.DeepEqual(profile.Skills, want) {
		t.Fatalf("skills = %v", profile.Skills)
	}
}

func TestLLMExperienceYearsMustBeNumeric(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"number", `7.5`, 7.5},
		{"numeric string", `" 4 "`, 4},
		{"prose string", `"5 years"`, 3},
		{"boolean", `true`, 3},
		{"null", `null`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{response: `{"name":"Jane Doe","experience_years":` + tt.value + `}`}
			p := New(nil, llm, nil, WithPresentYear(2024))

			profile, err := p.Parse(context.Background(), "Jane Doe\nPython, 2020-2023")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if profile.ExperienceYears != tt.want {
				t.Fatalf("experience years = %v, want %v", profile.ExperienceYears, tt.want)
			}
		})
	}
}

func TestLLMFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{name: "transient exhausted", llm: &fakeLLM{err: service.ErrTransient}},
		{name: "not json", llm: &fakeLLM{response: "Sorry, I can't help"}},
		{name: "json array", llm: &fakeLLM{response: `["a"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := New(nil, tt.llm, nil, WithPresentYear(2024)).Parse(context.Background(), "Jane Doe\nJava developer")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if profile.Outcome != OutcomeFallback || profile.LLMErr == nil {
				t.Fatalf("outcome = %s, err = %v", profile.Outcome, profile.LLMErr)
			}
			if profile.Summary != fallbackSummary {
				t.Fatalf("summary = %q", profile.Summary)
			}
			if want := []string{"java"}; !reflect.DeepEqual(profile.Skills, want) {
				t.Fatalf("skills = %v", profile.Skills)
			}
		})
	}
}

func TestPromptIsTruncated(t *testing.T) {
	llm := &fakeLLM{response: `{}`}
	long := make([]byte, maxPromptChars+5000)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := New(nil, llm, nil).Parse(context.Background(), string(long)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.prompts) != 1 || len(llm.prompts[0]) > maxPromptChars+1000 {
		t.Fatalf("prompt not truncated: %d bytes", len(llm.prompts[0]))
	}
}

func TestParseDocumentErrors(t *testing.T) {
	p := New(fakeExtractor{err: extract.ErrUnsupportedFormat}, nil, nil)
	_, err := p.ParseDocument(context.Background(), []byte("x"), "exe")

	var perr *Error
	if !errors.As(err, &perr) || perr.Stage != StageExtract {
		t.Fatalf("expected extract-stage *Error, got %v", err)
	}
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("cause lost: %v", err)
	}

	p = New(fakeExtractor{text: " \n\t\x00 "}, nil, nil)
	_, err = p.ParseDocument(context.Background(), []byte("x"), "txt")
	if !errors.As(err, &perr) || perr.Stage != StageClean || !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected clean-stage *Error, got %v", err)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("Name\tSurname\r\n\n\n\n• Go\n▪ SQL\n2019 – 2021\x00")
	want := "Name Surname\n\n- Go\n- SQL\n2019 - 2021"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestVocabularySkillsMatchesWholeTerms(t *testing.T) {
	got := vocabularySkills("JavaScript, C++ and Docker/Kubernetes on AWS")
	want := []string{"aws", "c++", "docker", "javascript", "kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("skills = %v, want %v", got, want)
	}
}
