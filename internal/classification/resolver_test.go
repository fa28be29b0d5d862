package classification

import (
	"sync"
	"testing"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	table, err := DefaultRuleTable()
	require.NoError(t, err)
	return NewClassifier(table, nil)
}

func liveCategories() []model.Category {
	return []model.Category{
		{ID: "1", Name: "Groceries"},
		{ID: "2", Name: "Restaurants"},
		{ID: "3", Name: "Transportation"},
		{ID: "4", Name: "Gym"},
		{ID: "5", Name: "Others"},
		{ID: "6", Name: "Subscriptions"},
		{ID: "7", Name: "Medicines"},
		{ID: "8", Name: "Pet Insurance"},
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := testClassifier(t)
	cats := liveCategories()

	tests := []struct {
		name           string
		merchant       string
		explicit       string
		wantName       string
		wantID         string
		wantSource     model.MatchSource
		wantConfidence float64
		wantSuggest    bool
	}{
		{
			name:           "empty merchant",
			merchant:       "",
			wantSource:     model.SourceNone,
			wantConfidence: 0,
		},
		{
			name:           "rule exact",
			merchant:       "Costco",
			wantName:       "Groceries",
			wantID:         "1",
			wantSource:     model.SourceRule,
			wantConfidence: 2.0,
		},
		{
			name:           "rule fuzzy",
			merchant:       "costso",
			wantName:       "Groceries",
			wantID:         "1",
			wantSource:     model.SourceRule,
			wantConfidence: 0.83,
		},
		{
			name:           "rule substring is weak",
			merchant:       "Uber trip downtown",
			wantName:       "Transportation",
			wantID:         "3",
			wantSource:     model.SourceRule,
			wantConfidence: 4.0 / 18.0,
			wantSuggest:    true,
		},
		{
			name:           "category only in rule table",
			merchant:       "Telus",
			wantName:       "Telcom",
			wantID:         "",
			wantSource:     model.SourceRule,
			wantConfidence: 2.0,
		},
		{
			name:           "live category name outranks weak rules",
			merchant:       "pet insurance",
			wantName:       "Pet Insurance",
			wantID:         "8",
			wantSource:     model.SourceName,
			wantConfidence: 2.0,
		},
		{
			name:           "explicit exact",
			merchant:       "whatever",
			explicit:       "Others",
			wantName:       "Others",
			wantID:         "5",
			wantSource:     model.SourceExplicit,
			wantConfidence: 2.0,
		},
		{
			name:           "explicit contained in category name",
			merchant:       "whatever",
			explicit:       "insurance",
			wantName:       "Pet Insurance",
			wantID:         "8",
			wantSource:     model.SourceExplicit,
			wantConfidence: 2.0,
		},
		{
			name:           "explicit fuzzy",
			merchant:       "whatever",
			explicit:       "grocery",
			wantName:       "Groceries",
			wantID:         "1",
			wantSource:     model.SourceExplicit,
			wantConfidence: 1.8,
		},
		{
			name:           "unknown explicit falls through to merchant",
			merchant:       "Netflix",
			explicit:       "zzzz",
			wantName:       "Subscriptions",
			wantID:         "6",
			wantSource:     model.SourceRule,
			wantConfidence: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.merchant, cats, tt.explicit)
			assert.Equal(t, tt.wantName, got.CategoryName)
			assert.Equal(t, tt.wantID, got.CategoryID)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			if !tt.wantSuggest {
				assert.Empty(t, got.Suggestions)
			} else {
				assert.NotEmpty(t, got.Suggestions)
			}
		})
	}
}

func TestClassifier_CostcoIsGroceries(t *testing.T) {
	c := testClassifier(t)
	got := c.Classify("Costco", []model.Category{{ID: "g", Name: "Groceries"}}, "")
	assert.Equal(t, "Groceries", got.CategoryName)
	assert.Equal(t, "g", got.CategoryID)
	assert.GreaterOrEqual(t, got.Confidence, 1.0)
}

func TestClassifier_GibberishIsAmbiguous(t *testing.T) {
	c := testClassifier(t)
	cats := liveCategories()

	got := c.Classify("random unmatched gibberish xq7z", cats, "")
	assert.Less(t, got.Confidence, SuggestionThreshold)
	assert.True(t, got.Ambiguous())
	require.NotEmpty(t, got.Suggestions)
	assert.LessOrEqual(t, len(got.Suggestions), model.MaxSuggestions)

	// nothing scored, so the first live categories are offered in order
	assert.Equal(t, "Groceries", got.Suggestions[0].Name)
	for i := 1; i < len(got.Suggestions); i++ {
		assert.GreaterOrEqual(t, got.Suggestions[i-1].Score, got.Suggestions[i].Score)
	}
}

func TestClassifier_SuggestionsRanked(t *testing.T) {
	c := testClassifier(t)
	cats := liveCategories()

	got := c.Classify("Uber trip downtown", cats, "")
	require.NotEmpty(t, got.Suggestions)
	assert.Equal(t, "Transportation", got.Suggestions[0].Name)
	for _, s := range got.Suggestions {
		assert.Greater(t, s.Score, SuggestionMinScore)
	}
}

func TestClassifier_SuggestionsUseRuleTableIgnoringCase(t *testing.T) {
	c := testClassifier(t)
	cats := []model.Category{{ID: "1", Name: "transportation"}, {ID: "2", Name: "Rent"}}

	got := c.Classify("Uber trip downtown", cats, "")
	require.NotEmpty(t, got.Suggestions)
	assert.Equal(t, "transportation", got.Suggestions[0].Name)
	assert.Equal(t, "1", got.CategoryID)
	assert.Equal(t, "transportation", got.CategoryName)
}

func TestClassifier_NoCategories(t *testing.T) {
	c := testClassifier(t)
	got := c.Classify("random unmatched gibberish xq7z", nil, "Others")
	assert.False(t, got.Matched())
	assert.Empty(t, got.Suggestions)
}

func TestClassifier_Concurrent(t *testing.T) {
	c := testClassifier(t)
	cats := liveCategories()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Classify("Costco", cats, "")
			assert.Equal(t, "Groceries", got.CategoryName)
		}()
	}
	wg.Wait()
}
