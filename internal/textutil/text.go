// Package textutil provides the lexical primitives shared by the quality
// gate and the requirement validators: normalization, tokenization, phrase
// counting, and set similarity.
package textutil

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and collapses punctuation and whitespace so that
// phrase counting and tokenization are insensitive to surface formatting.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize returns the set of normalized word tokens in text.
func Tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Normalize(text)) {
		set[tok] = struct{}{}
	}
	return set
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CountPhrases counts total occurrences of the given phrases in text.
// Matching is done on normalized text, so "Step 1:" matches "step 1".
func CountPhrases(text string, phrases []string) int {
	normalized := " " + Normalize(text) + " "
	count := 0
	for _, p := range phrases {
		if p == "" {
			continue
		}
		count += strings.Count(normalized, " "+p+" ")
	}
	return count
}

// ContainsDigit reports whether text contains at least one decimal digit.
func ContainsDigit(text string) bool {
	return strings.ContainsFunc(text, unicode.IsDigit)
}

// Jaccard computes set intersection over union for two token sets.
// Two empty sets have nothing to disagree about and score 1.0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Clamp01 clamps v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
