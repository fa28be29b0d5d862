package model

import "sort"

// MaxSuggestions caps the number of category suggestions in a result.
const MaxSuggestions = 6

// Suggestion is a candidate category offered for disambiguation.
type Suggestion struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Suggestions is an ordered list of candidate categories.
type Suggestions []Suggestion

// Sort orders suggestions by score, highest first. Equal scores keep their
// original relative order so results are deterministic.
func (s Suggestions) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Score > s[j].Score
	})
}

// TopN returns a sorted copy holding at most n suggestions.
func (s Suggestions) TopN(n int) Suggestions {
	if n <= 0 {
		return Suggestions{}
	}

	sorted := make(Suggestions, len(s))
	copy(sorted, s)
	sorted.Sort()

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// AboveThreshold returns the suggestions whose score is strictly greater than threshold.
func (s Suggestions) AboveThreshold(threshold float64) Suggestions {
	result := Suggestions{}
	for _, suggestion := range s {
		if suggestion.Score > threshold {
			result = append(result, suggestion)
		}
	}
	return result
}
