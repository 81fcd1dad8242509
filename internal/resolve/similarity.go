package resolve

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Similarity scores two normalized names in [0,1] as the better of token
// Jaccard overlap and Levenshtein similarity. Token overlap is robust to
// word reordering; edit distance catches spelling variants of short names.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	j := jaccard(a, b)
	l := levenshtein.Similarity(a, b, nil)
	if j > l {
		return j
	}
	return l
}

// jaccard computes word-set overlap between two strings.
func jaccard(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}

	union := len(wordsA)
	for w := range wordsB {
		if !wordsA[w] {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = true
		}
	}
	return set
}
