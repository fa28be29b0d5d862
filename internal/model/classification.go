// Package model defines the core domain models used throughout the application.
package model

// Confidence levels produced by the classification engine. Confidence is an
// ordinal heuristic, not a probability.
const (
	// ConfidenceExplicitExact is returned when the caller's category hint names a live category.
	ConfidenceExplicitExact = 2.0
	// ConfidenceExplicitFuzzy is returned when the hint is close to a live category name.
	ConfidenceExplicitFuzzy = 1.8
	// ConfidenceAmbiguous is the cutoff below which suggestions are offered.
	ConfidenceAmbiguous = 0.7
)

// ClassificationResult is the decision for a single merchant string.
// An empty CategoryName means no match; an empty CategoryID with a non-empty
// CategoryName means the category is known to the rule table but absent from
// the live category set.
type ClassificationResult struct {
	CategoryName string      `json:"category_name,omitempty"`
	CategoryID   string      `json:"category_id,omitempty"`
	Suggestions  Suggestions `json:"suggestions"`
	Source       MatchSource `json:"source"`
	Confidence   float64     `json:"confidence"`
}

// Matched reports whether any category was chosen.
func (r ClassificationResult) Matched() bool {
	return r.CategoryName != ""
}

// Resolved reports whether the chosen category exists in the live set.
func (r ClassificationResult) Resolved() bool {
	return r.CategoryID != ""
}

// Ambiguous reports whether the caller should disambiguate using Suggestions.
func (r ClassificationResult) Ambiguous() bool {
	return r.Confidence < ConfidenceAmbiguous
}

// MatchSource records which stage of the classifier produced a result.
type MatchSource string

const (
	// SourceNone means nothing matched.
	SourceNone MatchSource = "none"
	// SourceExplicit means the caller's category hint decided the result.
	SourceExplicit MatchSource = "explicit"
	// SourceRule means a phrase from the rule table won.
	SourceRule MatchSource = "rule"
	// SourceName means a live category name outscored the rule table.
	SourceName MatchSource = "name"
)
