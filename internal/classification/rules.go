package classification

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule table errors.
var (
	ErrEmptyRuleName     = errors.New("rule name is required")
	ErrDuplicateRuleName = errors.New("duplicate rule name")
	ErrNoPhrases         = errors.New("rule has no phrases")
)

// Rule lists the phrases that identify one category.
type Rule struct {
	Name    string   `yaml:"name"`
	Phrases []string `yaml:"phrases"`
}

type ruleFile struct {
	Categories []Rule `yaml:"categories"`
}

// RuleTable is an ordered, read-only mapping from category name to phrases.
// It is built once and shared; nothing mutates it after construction.
type RuleTable struct {
	index map[string]int
	rules []Rule
}

// NewRuleTable validates rules and builds a table preserving their order.
// Names are unique ignoring case.
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	table := &RuleTable{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}

	for i, r := range rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRuleName)
		}

		key := strings.ToLower(name)
		if _, exists := table.index[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRuleName, name)
		}

		phrases := make([]string, 0, len(r.Phrases))
		for _, p := range r.Phrases {
			if Normalize(p) != "" {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoPhrases, name)
		}

		table.index[key] = len(table.rules)
		table.rules = append(table.rules, Rule{Name: name, Phrases: phrases})
	}

	return table, nil
}

// ParseRuleTable reads a YAML rule document.
func ParseRuleTable(data []byte) (*RuleTable, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}
	return NewRuleTable(file.Categories)
}

// LoadRuleTable reads a rule table from path, or returns the built-in table
// when path is empty.
func LoadRuleTable(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRuleTable()
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table %s: %w", path, err)
	}
	return ParseRuleTable(data)
}

// DefaultRuleTable returns the built-in bilingual rule table.
func DefaultRuleTable() (*RuleTable, error) {
	return ParseRuleTable(defaultRules)
}

// Rules returns a copy of the rules in table order.
func (t *RuleTable) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = Rule{Name: r.Name, Phrases: append([]string(nil), r.Phrases...)}
	}
	return out
}

// Len returns the number of categories in the table.
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// Phrases returns the phrases for the named category, ignoring case.
func (t *RuleTable) Phrases(name string) ([]string, bool) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return t.rules[i].Phrases, true
}

// bestPhraseScore returns the highest score of subject against any phrase of rule i.
func (t *RuleTable) bestPhraseScore(i int, subject string) float64 {
	best := 0.0
	for _, phrase := range t.rules[i].Phrases {
		if s := Score(subject, phrase); s > best {
			best = s
		}
	}
	return best
}
