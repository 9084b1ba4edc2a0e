package search

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
}

// PercentSimilarity maps a cosine similarity in [-1,1] onto [0,100].
func PercentSimilarity(raw float64) float64 {
	return (raw + 1) / 2 * 100
}

// titleScore counts, for every candidate title token that occurs in the
// query title, the query tokens it contains. Equal token counts add one.
func titleScore(candidateTitle, queryTitle string) int {
	queryTitle = strings.ToLower(strings.TrimSpace(queryTitle))
	if queryTitle == "" {
		return 0
	}
	candidateTokens := strings.Fields(strings.ToLower(candidateTitle))
	queryTokens := strings.Fields(queryTitle)

	score := 0
	for _, ct := range candidateTokens {
		if !strings.Contains(queryTitle, ct) {
			continue
		}
		for _, qt := range queryTokens {
			if strings.Contains(ct, qt) {
				score++
			}
		}
	}
	if len(candidateTokens) == len(queryTokens) {
		score++
	}
	return score
}

// words splits text into a lower-cased set of words without stopwords.
func words(text string) map[string]struct{} {
	set := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range fields {
		if _, stop := stopwords[w]; !stop {
			set[w] = struct{}{}
		}
	}
	return set
}

// wordScore is the size of the intersection of two word sets.
func wordScore(query, candidate map[string]struct{}) int {
	n := 0
	for w := range query {
		if _, ok := candidate[w]; ok {
			n++
		}
	}
	return n
}

func intersects(names []string, excluded map[string]struct{}) bool {
	for _, name := range names {
		if _, ok := excluded[strings.ToLower(strings.TrimSpace(name))]; ok {
			return true
		}
	}
	return false
}
