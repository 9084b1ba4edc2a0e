// Package validation holds the quality gates applied to LLM-generated
// recipe content. Every rule is pure and returns the first failure found.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pageza/alchemorsel-search/internal/apperrors"
)

// EmbeddingDimensions is the fixed dimensionality of the embedding model.
const EmbeddingDimensions = 768

const (
	summaryMinLength      = 40
	summaryMaxLength      = 500
	summaryMinWords       = 8
	instructionsMinLength = 100
	instructionsMinSteps  = 3
	titleMinLength        = 4
	titleMaxLength        = 100
)

var titleCharset = regexp.MustCompile(`^[a-zA-Z0-9\s\-,'&]+$`)

func fail(rule, format string, args ...any) error {
	return &apperrors.ValidationError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// Summary checks a generated recipe summary.
func Summary(s string) error {
	const rule = "summary"
	if s == "" {
		return fail(rule, "summary is empty")
	}
	n := utf8.RuneCountInString(s)
	if n < summaryMinLength {
		return fail(rule, "length %d is below %d", n, summaryMinLength)
	}
	if n > summaryMaxLength {
		return fail(rule, "length %d exceeds %d", n, summaryMaxLength)
	}
	if strings.Contains(strings.ToLower(s), "lorem") {
		return fail(rule, "contains placeholder text")
	}
	if words := len(strings.Fields(s)); words < summaryMinWords {
		return fail(rule, "word count %d is below %d", words, summaryMinWords)
	}
	return nil
}

// RewrittenInstructions checks rewritten cooking instructions.
func RewrittenInstructions(s string) error {
	const rule = "instructions"
	if s == "" {
		return fail(rule, "instructions are empty")
	}
	if n := utf8.RuneCountInString(s); n <= instructionsMinLength {
		return fail(rule, "length %d must exceed %d", n, instructionsMinLength)
	}
	steps := 0
	for _, segment := range strings.Split(s, ".") {
		if strings.TrimSpace(segment) != "" {
			steps++
		}
	}
	if steps < instructionsMinSteps {
		return fail(rule, "found %d sentences, need at least %d", steps, instructionsMinSteps)
	}
	if strings.Contains(strings.ToLower(s), "null") {
		return fail(rule, "contains null marker")
	}
	return nil
}

// Embedding checks a generated embedding vector.
func Embedding(v []float32) error {
	const rule = "embedding"
	if v == nil {
		return fail(rule, "embedding is missing")
	}
	if len(v) != EmbeddingDimensions {
		return fail(rule, "dimension %d, want %d", len(v), EmbeddingDimensions)
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fail(rule, "element %d is not finite", i)
		}
	}
	return nil
}

// Title checks a formatted recipe title.
func Title(s string) error {
	const rule = "title"
	if strings.TrimSpace(s) == "" {
		return fail(rule, "title is blank")
	}
	n := utf8.RuneCountInString(s)
	if n < titleMinLength || n > titleMaxLength {
		return fail(rule, "length %d outside %d-%d", n, titleMinLength, titleMaxLength)
	}
	first, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(first) {
		return fail(rule, "must start with an uppercase letter")
	}
	if !titleCharset.MatchString(s) {
		return fail(rule, "contains disallowed characters")
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "lorem") || strings.Contains(lower, "null") {
		return fail(rule, "contains placeholder text")
	}
	return nil
}
