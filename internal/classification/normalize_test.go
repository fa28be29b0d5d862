package classification

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \t\n ", want: ""},
		{name: "lowercases", input: "COSTCO", want: "costco"},
		{name: "strips accents", input: "Café Ñandú", want: "cafe nandu"},
		{name: "uppercase accents", input: "ÀÉÎÕÜ", want: "aeiou"},
		{name: "punctuation becomes space", input: "T&T Supermarket", want: "t t supermarket"},
		{name: "collapses whitespace", input: "  7-Eleven   #123  ", want: "7 eleven 123"},
		{name: "spanish phrase", input: "Clase de Baile!", want: "clase de baile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	allowed := regexp.MustCompile(`^[a-z0-9 ]*$`)
	inputs := []string{
		"Farmacia Guadalajara S.A. de C.V.",
		"  UBER   *TRIP  ",
		"Pan y Té — Centro",
		"Crème brûlée & café",
		"İstanbul Kebab",
		"ß straße",
		"日本 sushi",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
		assert.Regexp(t, allowed, once, in)
	}
}
