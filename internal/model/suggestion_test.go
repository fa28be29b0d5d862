package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestions_TopN(t *testing.T) {
	s := Suggestions{
		{Name: "Gym", Score: 0.2},
		{Name: "Groceries", Score: 0.9},
		{Name: "Gadgets", Score: 0.2},
		{Name: "Rent", Score: 0.5},
	}

	tests := []struct {
		name string
		want []string
		n    int
	}{
		{name: "zero", n: 0, want: []string{}},
		{name: "two", n: 2, want: []string{"Groceries", "Rent"}},
		{name: "stable ties", n: 4, want: []string{"Groceries", "Rent", "Gym", "Gadgets"}},
		{name: "more than available", n: 10, want: []string{"Groceries", "Rent", "Gym", "Gadgets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.TopN(tt.n)
			names := make([]string, 0, len(got))
			for _, g := range got {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	// original slice is untouched
	assert.Equal(t, "Gym", s[0].Name)
}

func TestSuggestions_AboveThreshold(t *testing.T) {
	s := Suggestions{{Name: "a", Score: 0.1}, {Name: "b", Score: 0.11}, {Name: "c", Score: 0}}
	got := s.AboveThreshold(0.1)
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
}

func TestClassificationResult_Predicates(t *testing.T) {
	tests := []struct {
		name         string
		result       ClassificationResult
		wantMatch    bool
		wantResolved bool
		wantAmbig    bool
	}{
		{name: "no match", result: ClassificationResult{}, wantAmbig: true},
		{name: "resolved", result: ClassificationResult{CategoryName: "Rent", CategoryID: "1", Confidence: 0.9}, wantMatch: true, wantResolved: true},
		{name: "unresolved name", result: ClassificationResult{CategoryName: "Rent", Confidence: 0.9}, wantMatch: true},
		{name: "weak", result: ClassificationResult{CategoryName: "Rent", CategoryID: "1", Confidence: 0.6}, wantMatch: true, wantResolved: true, wantAmbig: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, tt.result.Matched())
			assert.Equal(t, tt.wantResolved, tt.result.Resolved())
			assert.Equal(t, tt.wantAmbig, tt.result.Ambiguous())
		})
	}
}
