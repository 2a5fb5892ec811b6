package search

import "strings"

// Score weights. The components stack on purpose: a candidate that prefixes,
// contains and word-matches the query earns cumulative partial credit, and
// the final clamp bounds it at 1.0.
const (
	prefixWeight       = 0.8
	substringWeight    = 0.6
	wordExactWeight    = 0.4
	wordPrefixWeight   = 0.3
	editDistanceWeight = 0.2
)

// Score computes the composite similarity between a query and a candidate,
// clamped to [0, 1]. Both inputs must already be lowercased and trimmed by
// the caller.
func Score(query, candidate string) float64 {
	if candidate == query {
		return 1.0
	}

	score := 0.0

	if strings.HasPrefix(candidate, query) {
		score += prefixWeight
	}
	if strings.Contains(candidate, query) {
		score += substringWeight
	}

	queryWords := strings.Split(query, " ")
	candidateWords := strings.Split(candidate, " ")
	for _, qw := range queryWords {
		for _, cw := range candidateWords {
			if qw == cw {
				score += wordExactWeight
			} else if strings.HasPrefix(cw, qw) {
				score += wordPrefixWeight
			}
		}
	}

	score += lengthScore(query, candidate) * editDistanceWeight

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// lengthScore converts edit distance into a [0,1] similarity relative to the
// longer string. Two empty strings count as identical.
func lengthScore(query, candidate string) float64 {
	maxLen := len([]rune(query))
	if l := len([]rune(candidate)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(query, candidate))/float64(maxLen)
}
