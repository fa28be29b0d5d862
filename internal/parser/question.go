package parser

import (
	"regexp"
	"strings"
)

// questionIndicators mark messages that ask about spending rather than
// record it.
var questionIndicators = []string{
	"give me", "show me", "tell me", "what", "how", "when", "where", "why",
	"spending", "spends", "spent", "expenses", "total", "breakdown", "analysis",
	"compare", "comparison", "categories", "category", "summary", "report",
	"cuanto", "cuánto", "gasto", "gastos", "resumen",
}

var yearPattern = regexp.MustCompile(`\b20\d{2}\b`)

// LooksLikeQuestion reports whether text reads as a question about spending,
// in which case it must not be parsed as an expense. A four-digit year
// anywhere in the message counts as a question.
func LooksLikeQuestion(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(lower, "?") {
		return true
	}
	for _, indicator := range questionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return yearPattern.MatchString(lower)
}

// ParseMessage parses text as an expense unless it looks like a question.
func ParseMessage(text string) (*ParsedExpense, bool) {
	if LooksLikeQuestion(text) {
		return nil, false
	}
	return Parse(text)
}
