package scoring

import (
	"math"
	"strings"
)

const (
	SkillsWeight  = 0.6
	ContextWeight = 0.2
	KeywordWeight = 0.2
)

// Signal names reported in Breakdown.DegradedSignals.
const (
	SignalJobContext       = "job_context"
	SignalCandidateContext = "candidate_context"
	SignalJobRequirements  = "job_requirements"
	SignalCandidateSkills  = "candidate_skills"
)

type Input struct {
	JobContext        []float32
	CandidateContext  []float32
	JobRequirements   []float32
	CandidateSkills   []float32
	RequirementTokens []string
	CandidateText     string
}

// Breakdown is stored as the application's score_breakdown.
type Breakdown struct {
	TotalScore          float64  `json:"total_score"`
	SkillsSemanticScore float64  `json:"skills_semantic_score"`
	ContextScore        float64  `json:"context_score"`
	KeywordScore        float64  `json:"keyword_score"`
	MatchedSkills       []string `json:"matched_skills"`
	DegradedSignals     []string `json:"degraded_signals,omitempty"`
}

// Degraded reports whether any embedding was missing, which zeroes its term.
func (b Breakdown) Degraded() bool {
	return len(b.DegradedSignals) > 0
}

// Score fuses the semantic and keyword signals. Empty embeddings contribute
// zero; the total is never negative.
func Score(in Input) Breakdown {
	skills := Cosine(in.JobRequirements, in.CandidateSkills)
	context := Cosine(in.JobContext, in.CandidateContext)
	matched, keyword := KeywordMatch(in.RequirementTokens, in.CandidateText)

	total := skills*SkillsWeight + context*ContextWeight + keyword*KeywordWeight

	b := Breakdown{
		TotalScore:          round2(math.Max(0, total)),
		SkillsSemanticScore: round2(math.Max(0, skills)),
		ContextScore:        round2(math.Max(0, context)),
		KeywordScore:        round2(keyword),
		MatchedSkills:       matched,
	}
	for _, s := range []struct {
		name string
		v    []float32
	}{
		{SignalJobContext, in.JobContext},
		{SignalCandidateContext, in.CandidateContext},
		{SignalJobRequirements, in.JobRequirements},
		{SignalCandidateSkills, in.CandidateSkills},
	} {
		if len(s.v) == 0 {
			b.DegradedSignals = append(b.DegradedSignals, s.name)
		}
	}
	return b
}

// Cosine returns the cosine similarity of a and b. Empty, zero or
// mismatched-length vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

// KeywordMatch returns the tokens found as case-insensitive substrings of
// text, in token order, and the fraction matched.
func KeywordMatch(tokens []string, text string) ([]string, float64) {
	matched := []string{}
	if len(tokens) == 0 || text == "" {
		return matched, 0
	}
	lower := strings.ToLower(text)
	for _, token := range tokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			matched = append(matched, token)
		}
	}
	return matched, float64(len(matched)) / float64(len(tokens))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
