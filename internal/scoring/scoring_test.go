package scoring

import (
	"math"
	"reflect"
	"testing"
)

func TestKeywordMatch(t *testing.T) {
	tests := []struct {
		name        string
		tokens      []string
		text        string
		wantMatched []string
		wantScore   float64
	}{
		{
			name:        "two of three in token order",
			tokens:      []string{"Python", "SQL", "AWS"},
			text:        "Experienced with aws and PYTHON",
			wantMatched: []string{"Python", "AWS"},
			wantScore:   2.0 / 3.0,
		},
		{name: "no tokens", tokens: nil, text: "python", wantMatched: []string{}, wantScore: 0},
		{name: "empty text", tokens: []string{"Go"}, text: "", wantMatched: []string{}, wantScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, score := KeywordMatch(tt.tokens, tt.text)
			if !reflect.DeepEqual(matched, tt.wantMatched) {
				t.Fatalf("matched = %v, want %v", matched, tt.wantMatched)
			}
			if math.Abs(score-tt.wantScore) > 1e-9 {
				t.Fatalf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	if Cosine(a, b) != Cosine(b, a) {
		t.Fatalf("cosine not symmetric")
	}
	if got := Cosine(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("self similarity = %v", got)
	}
	if got := Cosine(a, []float32{0, 0, 0}); got != 0 {
		t.Fatalf("zero vector similarity = %v", got)
	}
	if got := Cosine(a, nil); got != 0 {
		t.Fatalf("empty vector similarity = %v", got)
	}
	if got := Cosine(a, []float32{1, 2}); got != 0 {
		t.Fatalf("mismatched length similarity = %v", got)
	}
}

func TestScoreWeightsAndRounding(t *testing.T) {
	v := []float32{1, 0}
	b := Score(Input{
		JobContext:        v,
		CandidateContext:  v,
		JobRequirements:   v,
		CandidateSkills:   v,
		RequirementTokens: []string{"Python", "Kubernetes"},
		CandidateText:     "Skills: Python, Docker",
	})

	if !reflect.DeepEqual(b.MatchedSkills, []string{"Python"}) || b.KeywordScore != 0.5 {
		t.Fatalf("keyword part = %v / %v", b.MatchedSkills, b.KeywordScore)
	}
	if b.TotalScore != 0.9 {
		t.Fatalf("total = %v, want 0.9", b.TotalScore)
	}
	if b.Degraded() {
		t.Fatalf("unexpected degraded signals %v", b.DegradedSignals)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	b := Score(Input{
		JobContext:       []float32{1, 0},
		CandidateContext: []float32{-1, 0},
		JobRequirements:  []float32{0, 1},
		CandidateSkills:  []float32{0, -1},
	})
	if b.TotalScore != 0 || b.SkillsSemanticScore != 0 || b.ContextScore != 0 {
		t.Fatalf("negative scores leaked: %+v", b)
	}
}

func TestScoreDegradedSignals(t *testing.T) {
	b := Score(Input{
		JobContext:        []float32{1, 0},
		CandidateContext:  []float32{1, 0},
		RequirementTokens: []string{"Go"},
		CandidateText:     "go developer",
	})

	want := []string{SignalJobRequirements, SignalCandidateSkills}
	if !reflect.DeepEqual(b.DegradedSignals, want) {
		t.Fatalf("degraded = %v, want %v", b.DegradedSignals, want)
	}
	if b.SkillsSemanticScore != 0 || b.TotalScore != 0.4 {
		t.Fatalf("unexpected scores %+v", b)
	}
}
