package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		result model.ClassificationResult
	}{
		{name: "nothing matched", result: model.ClassificationResult{}, want: OutcomeNone},
		{name: "explicit", result: model.ClassificationResult{CategoryName: "Rent", Source: model.SourceExplicit, Confidence: 2}, want: OutcomeExplicit},
		{name: "rule", result: model.ClassificationResult{CategoryName: "Groceries", Source: model.SourceRule, Confidence: 2}, want: OutcomeRule},
		{name: "name", result: model.ClassificationResult{CategoryName: "Pets", Source: model.SourceName, Confidence: 0.9}, want: OutcomeName},
		{name: "ambiguous", result: model.ClassificationResult{CategoryName: "Groceries", Source: model.SourceRule, Confidence: 0.65}, want: OutcomeAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.result))
		})
	}
}

func TestCollector(t *testing.T) {
	c := New()
	reg := prometheus.NewRegistry()
	c.Register(reg)

	c.Classified(model.ClassificationResult{CategoryName: "Rent", Source: model.SourceRule, Confidence: 2})
	c.Classified(model.ClassificationResult{})
	c.GuardrailVerdict(guardrail.Verdict{Accepted: true})
	c.GuardrailVerdict(guardrail.Verdict{Reason: guardrail.ReasonForbiddenKeyword})
	c.GuardrailVerdict(guardrail.Verdict{Reason: guardrail.ReasonForbiddenKeyword})
	c.QueryResolved("template", "week_total", 3*time.Millisecond, nil)
	c.QueryResolved("dynamic", "", time.Millisecond, errors.New("store down"))
	c.UnresolvedWindow()

	assert.InDelta(t, 1, testutil.ToFloat64(c.classifications.WithLabelValues(OutcomeRule)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.classifications.WithLabelValues(OutcomeNone)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.guardrailVerdicts.WithLabelValues("forbidden_keyword")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.guardrailVerdicts.WithLabelValues("accepted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.queries.WithLabelValues("dynamic", "", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.unresolvedWindows), 0)

	expected := `
# HELP finassist_queries_total Resolved queries by intent kind, template and status
# TYPE finassist_queries_total counter
finassist_queries_total{kind="dynamic",status="error",template=""} 1
finassist_queries_total{kind="template",status="ok",template="week_total"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "finassist_queries_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(c.queryDuration))
}
