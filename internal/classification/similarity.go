package classification

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Scores returned by Score.
const (
	// ExactScore is awarded when subject and phrase are identical after normalization.
	ExactScore = 2.0
	// SubstringCap bounds the score of a phrase found inside the subject.
	SubstringCap = 1.5
	// FuzzyRatioThreshold is the partial ratio (0-100) a fuzzy match must exceed.
	FuzzyRatioThreshold = 80

	substringMinLength = 4
	perfectRatio       = 0.995
)

// Score compares an already normalized subject with a raw phrase and returns
// a value in [0, 2.0]. Checks run as a waterfall: exact equality, then
// substring containment, then fuzzy partial similarity.
func Score(subject, phrase string) float64 {
	normalized := Normalize(phrase)
	if subject == "" || normalized == "" {
		return 0
	}

	if subject == normalized {
		return ExactScore
	}

	if strings.Contains(subject, normalized) {
		length := float64(len(normalized)) / float64(max(substringMinLength, len(subject)))
		return math.Min(SubstringCap, length)
	}

	if ratio := PartialRatio(subject, normalized); ratio > FuzzyRatioThreshold {
		return float64(ratio) / 100.0
	}
	return 0
}

// PartialRatio returns the best similarity, on a 0-100 scale, between the
// shorter string and any equally long window of the longer one. Windows are
// anchored on the matching blocks found between the two strings.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}

	shorter := strings.Split(a, "")
	longer := strings.Split(b, "")
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	matcher := difflib.NewMatcher(shorter, longer)

	best := 0.0
	for _, block := range matcher.GetMatchingBlocks() {
		start := max(0, block.B-block.A)
		end := min(len(longer), start+len(shorter))

		ratio := difflib.NewMatcher(shorter, longer[start:end]).Ratio()
		if ratio > perfectRatio {
			return 100
		}
		best = math.Max(best, ratio)
	}

	return int(math.RoundToEven(best * 100))
}
