package matching

import (
	"math"
	"strings"
)

// Scorer provides string and value comparison algorithms
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// SequenceRatio calculates a similarity ratio between two strings based on
// their longest common subsequence: 2*LCS / (len(a)+len(b)).
// Returns a value between 0.0 (no similarity) and 1.0 (exact match)
func (s *Scorer) SequenceRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := s.LCSLength(a, b)
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

// LCSLength calculates the length of the longest common subsequence
func (s *Scorer) LCSLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				row[j] = prevRow[j-1] + 1
			} else {
				row[j] = max(row[j-1], prevRow[j])
			}
		}
		row, prevRow = prevRow, row
		for j := range row {
			row[j] = 0
		}
	}

	return prevRow[len(b)]
}

// Levenshtein calculates the Levenshtein distance between two strings
// Returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// AmountProximity calculates a proximity score for two monetary amounts.
// Exact matches (within a tenth of a cent) score 1.0. Within tolerancePercent
// of the average magnitude the score decays linearly to 0.7; beyond it, 0.0.
func (s *Scorer) AmountProximity(a, b, tolerancePercent float64) float64 {
	if math.Abs(a-b) < 0.001 {
		return 1.0
	}

	avg := (math.Abs(a) + math.Abs(b)) / 2
	if avg == 0 {
		if a == b {
			return 1.0
		}
		return 0.0
	}

	diffPercent := math.Abs(a-b) / avg
	if diffPercent <= tolerancePercent {
		return 1.0 - (diffPercent/tolerancePercent)*0.3
	}
	return 0.0
}

// WeightedScore calculates a weighted average of scores
func (s *Scorer) WeightedScore(scores, weights []float64) float64 {
	var totalWeight float64
	var weightedSum float64

	for i, score := range scores {
		weight := 1.0 // Default weight
		if i < len(weights) {
			weight = weights[i]
		}
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}

	return weightedSum / totalWeight
}
