package classification

import (
	"log/slog"
	"strings"

	"github.com/Veraticus/finassist/internal/model"
)

// Decision thresholds. They were tuned by hand against household merchant
// strings and are kept as named values so they can be recalibrated together.
const (
	// ExplicitFuzzyThreshold is the score a category hint must exceed to be accepted fuzzily.
	ExplicitFuzzyThreshold = 0.5
	// NameFallbackThreshold is the rule score below which live category names are also tried.
	NameFallbackThreshold = 0.6
	// SuggestionThreshold is the confidence below which suggestions are produced.
	SuggestionThreshold = model.ConfidenceAmbiguous
	// SuggestionMinScore is the score a category must exceed to be suggested.
	SuggestionMinScore = 0.1
)

// Classifier resolves merchant strings to categories. It holds only the
// immutable rule table and is safe for concurrent use.
type Classifier struct {
	rules  *RuleTable
	logger *slog.Logger
}

// NewClassifier creates a classifier over rules. A nil logger uses slog.Default().
func NewClassifier(rules *RuleTable, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: rules, logger: logger}
}

// Rules returns the rule table the classifier was built with.
func (c *Classifier) Rules() *RuleTable {
	return c.rules
}

// Classify picks a category for merchant from the live categories snapshot.
// A non-empty explicitCategory is tried first and, when it names no live
// category, classification continues from the merchant text.
func (c *Classifier) Classify(merchant string, categories []model.Category, explicitCategory string) model.ClassificationResult {
	subject := Normalize(merchant)
	if subject == "" {
		return model.ClassificationResult{Source: model.SourceNone, Suggestions: model.Suggestions{}}
	}

	if result, ok := c.matchExplicit(explicitCategory, categories); ok {
		return result
	}

	result := model.ClassificationResult{Source: model.SourceNone}

	for i, rule := range c.rules.rules {
		if score := c.rules.bestPhraseScore(i, subject); score > result.Confidence {
			result.CategoryName = rule.Name
			result.Confidence = score
			result.Source = model.SourceRule
		}
	}

	if result.Confidence < NameFallbackThreshold {
		for _, cat := range categories {
			if score := Score(subject, cat.Name); score > result.Confidence {
				result.CategoryName = cat.Name
				result.Confidence = score
				result.Source = model.SourceName
			}
		}
	}

	if result.CategoryName != "" {
		if cat := model.FindCategoryByName(categories, result.CategoryName); cat != nil {
			result.CategoryName = cat.Name
			result.CategoryID = cat.ID
		}
	}

	result.Suggestions = model.Suggestions{}
	if result.Confidence < SuggestionThreshold {
		result.Suggestions = c.suggest(subject, categories)
	}

	c.logger.Debug("classified merchant",
		"merchant", merchant,
		"category", result.CategoryName,
		"confidence", result.Confidence,
		"source", result.Source,
		"suggestions", len(result.Suggestions))

	return result
}

func (c *Classifier) matchExplicit(explicitCategory string, categories []model.Category) (model.ClassificationResult, bool) {
	hint := Normalize(explicitCategory)
	if hint == "" {
		return model.ClassificationResult{}, false
	}

	for _, cat := range categories {
		name := Normalize(cat.Name)
		if name == hint || strings.Contains(name, hint) {
			return model.ClassificationResult{
				CategoryName: cat.Name,
				CategoryID:   cat.ID,
				Confidence:   model.ConfidenceExplicitExact,
				Source:       model.SourceExplicit,
				Suggestions:  model.Suggestions{},
			}, true
		}
	}

	var best *model.Category
	bestScore := 0.0
	for i := range categories {
		if score := Score(hint, categories[i].Name); score > bestScore {
			best = &categories[i]
			bestScore = score
		}
	}

	if best == nil || bestScore <= ExplicitFuzzyThreshold {
		c.logger.Debug("category hint did not match", "hint", explicitCategory, "best_score", bestScore)
		return model.ClassificationResult{}, false
	}

	return model.ClassificationResult{
		CategoryName: best.Name,
		CategoryID:   best.ID,
		Confidence:   model.ConfidenceExplicitFuzzy,
		Source:       model.SourceExplicit,
		Suggestions:  model.Suggestions{},
	}, true
}

// suggest ranks live categories by the better of their name score and their
// rule table score. When nothing clears SuggestionMinScore the first
// MaxSuggestions live categories are offered with a zero score.
func (c *Classifier) suggest(subject string, categories []model.Category) model.Suggestions {
	suggestions := make(model.Suggestions, 0, len(categories))
	for _, cat := range categories {
		score := Score(subject, cat.Name)
		if i, ok := c.rules.index[strings.ToLower(strings.TrimSpace(cat.Name))]; ok {
			score = max(score, c.rules.bestPhraseScore(i, subject))
		}
		suggestions = append(suggestions, model.Suggestion{ID: cat.ID, Name: cat.Name, Score: score})
	}

	ranked := suggestions.AboveThreshold(SuggestionMinScore).TopN(model.MaxSuggestions)
	if len(ranked) > 0 {
		return ranked
	}

	fallback := model.Suggestions{}
	for _, cat := range categories {
		if len(fallback) == model.MaxSuggestions {
			break
		}
		fallback = append(fallback, model.Suggestion{ID: cat.ID, Name: cat.Name})
	}
	return fallback
}
