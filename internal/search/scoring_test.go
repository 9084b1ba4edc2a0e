package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentSimilarity(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{-1, 0},
		{0, 50},
		{1, 100},
		{0.9, 95},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, PercentSimilarity(tt.raw), 1e-9)
	}

	prev := PercentSimilarity(-1)
	for raw := -0.9; raw <= 1.0; raw += 0.1 {
		cur := PercentSimilarity(raw)
		assert.Greater(t, cur, prev)
		prev = cur
	}
}

func TestTitleScore(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		query     string
		want      int
	}{
		{"identical two-word title", "Chicken Soup", "chicken soup", 3},
		{"superset title", "Spicy Chicken Soup", "Chicken Soup", 2},
		{"no query title", "Chicken Soup", "", 0},
		{"unrelated", "Beef Stew", "Chicken Soup", 1},
		{"unrelated different length", "Beef Stew Deluxe", "Chicken Soup", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titleScore(tt.candidate, tt.query))
		})
	}
}

func TestWordsDropsStopwordsAndPunctuation(t *testing.T) {
	got := words("The Quick, and the Spicy-Tofu!")
	assert.Equal(t, map[string]struct{}{"quick": {}, "spicy": {}, "tofu": {}}, got)
}

func TestWordScore(t *testing.T) {
	assert.Equal(t, 2, wordScore(words("spicy tofu bowl"), words("Spicy Tofu Stir Fry")))
	assert.Zero(t, wordScore(words("a the"), words("the a")))
}
