package parser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/extract"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/service"
)

const maxPromptChars = 15000

var errMalformedResponse = errors.New("malformed LLM response")

type Parser struct {
	extractor   extract.TextExtractor
	llm         service.TextGenerator
	presentYear int
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Parser)

// WithPresentYear fixes the year "present" resolves to. Zero uses the
// current calendar year at parse time.
func WithPresentYear(year int) Option {
	return func(p *Parser) { p.presentYear = year }
}

// New builds a parser. llm may be nil, in which case every profile comes
// from the fallback layer.
func New(extractor extract.TextExtractor, llm service.TextGenerator, log *zap.Logger, opts ...Option) *Parser {
	p := &Parser{
		extractor: extractor,
		llm:       llm,
		now:       time.Now,
		logger:    logger.OrNop(log),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseDocument extracts text from a résumé binary and parses it. Every
// failure is an *Error.
func (p *Parser) ParseDocument(ctx context.Context, data []byte, ext string) (*ParsedProfile, error) {
	text, err := p.extractor.Extract(ctx, data, ext)
	if err != nil {
		return nil, &Error{Stage: StageExtract, Err: err}
	}
	return p.Parse(ctx, text)
}

// Parse runs the deterministic layer, then the LLM layer with the rule-based
// fallback, and merges the two. LLM failures never fail the parse.
func (p *Parser) Parse(ctx context.Context, text string) (*ParsedProfile, error) {
	clean := CleanText(text)
	if clean == "" {
		return nil, &Error{Stage: StageClean, Err: ErrEmptyText}
	}

	base := extractContacts(clean)
	fallback := fallbackFields(clean, p.referenceYear())

	primary, llmErr := p.extractWithLLM(ctx, clean)
	profile := merge(base, primary, fallback, clean)
	if llmErr != nil {
		profile.Outcome = OutcomeFallback
		profile.LLMErr = llmErr
		if !errors.Is(llmErr, service.ErrNotConfigured) {
			p.logger.Warn("LLM extraction failed, using fallback", zap.String(logger.FieldStep, "parse"), zap.Error(llmErr))
		}
	} else {
		profile.Outcome = OutcomeLLM
	}
	return &profile, nil
}

func (p *Parser) referenceYear() int {
	if p.presentYear > 0 {
		return p.presentYear
	}
	return p.now().Year()
}

func (p *Parser) extractWithLLM(ctx context.Context, text string) (fields, error) {
	if p.llm == nil {
		return fields{}, service.ErrNotConfigured
	}

	raw, err := p.llm.GenerateJSON(ctx, buildExtractionPrompt(text))
	if err != nil {
		return fields{}, err
	}
	return decodeFields(raw)
}

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(`
You are an expert HR résumé parser. Extract the following information from the résumé text below.
Return ONLY a raw JSON object. Do not use Markdown formatting.

Keys required:
- name: full name of the candidate.
- skills: list of technical skills, languages and tools.
- experience_years: number, estimate of total years of professional experience.
- summary: a concise two-sentence professional summary of the candidate.
- education: list of degrees and institutions as strings.

Résumé text:
%s
`, truncateRunes(text, maxPromptChars))
}

// decodeFields reads the model's JSON. A key that is absent stays nil so the
// fallback value is used for it.
func decodeFields(raw string) (fields, error) {
	body := stripCodeFence(raw)
	if !gjson.Valid(body) || !gjson.Parse(body).IsObject() {
		return fields{}, fmt.Errorf("%w: %s", errMalformedResponse, logger.TruncateForLog(body, 200))
	}
	doc := gjson.Parse(body)

	var f fields
	if v := doc.Get("name"); v.Exists() && strings.TrimSpace(v.String()) != "" {
		name := strings.TrimSpace(v.String())
		f.Name = &name
	}
	if v := doc.Get("summary"); v.Exists() && v.Type != gjson.Null {
		summary := strings.TrimSpace(v.String())
		f.Summary = &summary
	}
	if years, ok := number(doc.Get("experience_years")); ok {
		f.ExperienceYears = &years
	}
	if v := doc.Get("skills"); v.IsArray() {
		f.Skills = stringList(v)
	}
	if v := doc.Get("education"); v.IsArray() {
		f.Education = stringList(v)
	}
	return f, nil
}

// number accepts JSON numbers and numeric strings. Anything else, such as
// "5 years", counts as absent so the rule-based estimate is kept.
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// stringList flattens an array whose items may be strings or objects.
func stringList(v gjson.Result) []string {
	out := []string{}
	for _, item := range v.Array() {
		var s string
		if item.IsObject() {
			var parts []string
			item.ForEach(func(_, value gjson.Result) bool {
				if str := strings.TrimSpace(value.String()); str != "" {
					parts = append(parts, str)
				}
				return true
			})
			s = strings.Join(parts, ", ")
		} else {
			s = strings.TrimSpace(item.String())
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
