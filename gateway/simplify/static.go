// Package simplify rewrites clinical instructions in plain language. The
// live client delegates to a chat completion API; the static simplifier
// applies a medical jargon substitution table.
package simplify

import (
	"context"
	"regexp"
	"strings"

	"github.com/medreconcile/medreconcile-api/interfaces"
)

var _ interfaces.Simplifier = (*StaticSimplifier)(nil)

// Reading levels accepted by both simplifiers.
const (
	LevelBasic        = "basic"
	LevelSimple       = "simple"
	LevelIntermediate = "intermediate"
)

const (
	staticConfidence = 0.6
	liveConfidence   = 0.9
)

// substitutions maps clinical jargon to plain language. Matching is
// case-insensitive on word boundaries.
var substitutions = []struct {
	term  string
	plain string
}{
	{"hypertension", "high blood pressure"},
	{"hyperlipidemia", "high cholesterol"},
	{"myocardial infarction", "heart attack"},
	{"cerebrovascular accident", "stroke"},
	{"renal", "kidney"},
	{"hepatic", "liver"},
	{"cardiac", "heart"},
	{"pulmonary", "lung"},
	{"edema", "swelling"},
	{"pruritus", "itching"},
	{"analgesic", "pain reliever"},
	{"anticoagulant", "blood thinner"},
	{"antihypertensive", "blood pressure medicine"},
	{"subcutaneous", "under the skin"},
	{"intravenous", "into a vein"},
	{"twice daily", "two times a day"},
	{"once daily", "one time a day"},
	{"prn", "as needed"},
	{"po", "by mouth"},
	{"contraindicated", "should not be used"},
	{"adverse effects", "side effects"},
	{"discontinue", "stop taking"},
	{"administer", "take"},
}

// StaticSimplifier substitutes known medical terms with plain-language
// equivalents. It cannot restructure sentences, so its confidence is lower
// than the generative client's.
type StaticSimplifier struct {
	patterns []*regexp.Regexp
}

func NewStaticSimplifier() *StaticSimplifier {
	s := &StaticSimplifier{}
	for _, sub := range substitutions {
		s.patterns = append(s.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(sub.term)+`\b`))
	}
	return s
}

func (s *StaticSimplifier) Simplify(ctx context.Context, text, readingLevel string) (*interfaces.SimplifiedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	level, err := normalizeLevel(readingLevel)
	if err != nil {
		return nil, err
	}

	explained := s.explainedTerms(text)
	simplified := text
	for i, pat := range s.patterns {
		simplified = pat.ReplaceAllString(simplified, substitutions[i].plain)
	}

	return newResult(text, simplified, level, staticConfidence, explained), nil
}

// explainedTerms lists the jargon terms from the substitution table that
// appear in the text.
func (s *StaticSimplifier) explainedTerms(text string) []string {
	found := []string{}
	for i, pat := range s.patterns {
		if pat.MatchString(text) {
			found = append(found, substitutions[i].term)
		}
	}
	return found
}

func newResult(original, simplified, level string, confidence float64, explained []string) *interfaces.SimplifiedText {
	originalWords := len(strings.Fields(original))
	simplifiedWords := len(strings.Fields(simplified))
	var reduction float64
	if originalWords > 0 {
		reduction = float64(originalWords-simplifiedWords) / float64(originalWords) * 100
	}
	return &interfaces.SimplifiedText{
		Original:            original,
		Simplified:          simplified,
		ReadingLevel:        level,
		Confidence:          confidence,
		OriginalWordCount:   originalWords,
		SimplifiedWordCount: simplifiedWords,
		WordCountReduction:  reduction,
		KeyTermsExplained:   explained,
	}
}

func normalizeLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelSimple:
		return LevelSimple, nil
	case LevelBasic:
		return LevelBasic, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	default:
		return "", &UnknownLevelError{Level: level}
	}
}

// UnknownLevelError reports an unsupported reading level.
type UnknownLevelError struct {
	Level string
}

func (e *UnknownLevelError) Error() string {
	return "unknown reading level: " + e.Level
}
