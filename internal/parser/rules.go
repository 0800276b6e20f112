package parser

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkPattern  = regexp.MustCompile(`https?://\S+`)
	rangePattern = regexp.MustCompile(`(20\d{2})\s*-\s*(present|20\d{2})`)
)

const (
	unknownName     = "Unknown"
	fallbackSummary = "Extracted by rule-based fallback (LLM unavailable)."
)

// knownSkills is the vocabulary for the fallback layer.
var knownSkills = []string{
	"python", "sql", "javascript", "typescript", "react", "java", "c++", "golang",
	"aws", "gcp", "azure", "docker", "kubernetes", "terraform", "linux", "git",
	"postgresql", "mysql", "mongodb", "redis", "kafka",
	"machine learning", "pytorch", "tensorflow",
}

func extractContacts(text string) contacts {
	c := contacts{
		Email: emailPattern.FindString(text),
		Phone: strings.TrimSpace(phonePattern.FindString(text)),
		Links: linkPattern.FindAllString(text, -1),
	}
	if c.Links == nil {
		c.Links = []string{}
	}
	return c
}

// fallbackFields estimates the soft fields without a model. The name rule
// (first non-blank line) is a weak heuristic.
func fallbackFields(text string, presentYear int) fields {
	name := unknownName
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			name = line
			break
		}
	}

	years := experienceYears(text, presentYear)
	summary := fallbackSummary
	return fields{
		Name:            &name,
		Skills:          vocabularySkills(text),
		ExperienceYears: &years,
		Summary:         &summary,
		Education:       []string{},
	}
}

// experienceYears sums every "YYYY-YYYY" and "YYYY-present" range. Ranges
// that run backwards are ignored. Overlapping ranges are counted twice.
func experienceYears(text string, presentYear int) float64 {
	var total int
	for _, m := range rangePattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		start, _ := strconv.Atoi(m[1])
		end := presentYear
		if m[2] != "present" {
			end, _ = strconv.Atoi(m[2])
		}
		if end >= start {
			total += end - start
		}
	}
	return math.Round(float64(total)*10) / 10
}

func vocabularySkills(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, skill := range knownSkills {
		if containsTerm(lower, skill) {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// containsTerm reports whether term occurs in text without being glued to a
// surrounding letter or digit, so "java" does not match "javascript".
func containsTerm(text, term string) bool {
	for offset := 0; ; {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		offset = start + 1
	}
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
