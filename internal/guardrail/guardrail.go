// Package guardrail decides whether a piece of query text is safe to hand to
// the emulated executor: a single read-only SELECT or WITH statement with no
// comments and no write or DDL keywords.
package guardrail

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Reason identifies why a query was rejected. Forbidden patterns use the
// pattern id from the policy document.
type Reason string

const (
	// ReasonEmpty rejects blank text.
	ReasonEmpty Reason = "empty"
	// ReasonNotSelect rejects text that does not start with an allowed prefix.
	ReasonNotSelect Reason = "not_select_or_with"
	// ReasonForbiddenKeyword rejects text containing a write or DDL keyword.
	ReasonForbiddenKeyword Reason = "forbidden_keyword"
)

// ErrRejected is matched by every RejectedError.
var ErrRejected = errors.New("query rejected by guardrail")

// Policy errors.
var (
	ErrInvalidPattern = errors.New("invalid guardrail pattern")
	ErrNoPrefixes     = errors.New("guardrail policy allows no statement prefixes")
)

// Verdict is the outcome of validating one query.
type Verdict struct {
	Reason   Reason `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Accepted bool   `json:"accepted"`
}

// Err returns nil for accepted verdicts and a *RejectedError otherwise.
func (v Verdict) Err() error {
	if v.Accepted {
		return nil
	}
	return &RejectedError{Reason: v.Reason, Detail: v.Detail}
}

// RejectedError reports a guardrail rejection.
type RejectedError struct {
	Reason Reason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrRejected, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Reason)
}

// Is makes errors.Is(err, ErrRejected) hold for any rejection.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// PatternSpec is one forbidden pattern as written in a policy document.
type PatternSpec struct {
	ID          string `yaml:"id"`
	Regex       string `yaml:"regex"`
	Description string `yaml:"description"`
}

// Document is the YAML form of a policy.
type Document struct {
	Patterns        []PatternSpec `yaml:"patterns"`
	Keywords        []string      `yaml:"keywords"`
	AllowedPrefixes []string      `yaml:"allowed_prefixes"`
}

type compiledPattern struct {
	re *regexp.Regexp
	id Reason
}

// Policy is a compiled, immutable guardrail.
type Policy struct {
	keywords *regexp.Regexp
	prefix   *regexp.Regexp
	patterns []compiledPattern
}

// NewPolicy compiles a policy document.
func NewPolicy(doc Document) (*Policy, error) {
	p := &Policy{patterns: make([]compiledPattern, 0, len(doc.Patterns))}

	for _, spec := range doc.Patterns {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: pattern %q has no id", ErrInvalidPattern, spec.Regex)
		}
		re, err := regexp.Compile("(?is)" + spec.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrInvalidPattern, spec.ID, err)
		}
		p.patterns = append(p.patterns, compiledPattern{id: Reason(spec.ID), re: re})
	}

	if words := quoteAll(doc.Keywords); len(words) > 0 {
		p.keywords = regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	}

	prefixes := quoteAll(doc.AllowedPrefixes)
	if len(prefixes) == 0 {
		return nil, ErrNoPrefixes
	}
	p.prefix = regexp.MustCompile(`(?i)^(?:` + strings.Join(prefixes, "|") + `)\b`)

	return p, nil
}

// ParsePolicy reads a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse guardrail policy: %w", err)
	}
	return NewPolicy(doc)
}

// LoadPolicy reads a policy from path, or returns the built-in policy when
// path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy()
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read guardrail policy %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() (*Policy, error) {
	return ParsePolicy(defaultPolicy)
}

// Validate checks text against the policy. Rejections are normal return
// values; Validate never fails on malformed input.
func (p *Policy) Validate(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{Reason: ReasonEmpty}
	}

	for _, pattern := range p.patterns {
		if loc := pattern.re.FindStringIndex(trimmed); loc != nil {
			return Verdict{Reason: pattern.id, Detail: trimmed[loc[0]:loc[1]]}
		}
	}

	if p.keywords != nil {
		if m := p.keywords.FindString(trimmed); m != "" {
			return Verdict{Reason: ReasonForbiddenKeyword, Detail: strings.ToLower(m)}
		}
	}

	if !p.prefix.MatchString(trimmed) {
		return Verdict{Reason: ReasonNotSelect}
	}

	return Verdict{Accepted: true}
}

func quoteAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, regexp.QuoteMeta(w))
		}
	}
	return out
}
