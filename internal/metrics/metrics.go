// Package metrics exposes classification and query engine counters to
// Prometheus.
package metrics

import (
	"time"

	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "finassist"

// Classification outcome labels.
const (
	OutcomeExplicit  = "explicit"
	OutcomeRule      = "rule"
	OutcomeName      = "name"
	OutcomeAmbiguous = "ambiguous"
	OutcomeNone      = "none"
)

// Collector holds every metric the assistant exports. It implements
// query.Observer.
type Collector struct {
	classifications   *prometheus.CounterVec
	guardrailVerdicts *prometheus.CounterVec
	queries           *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	unresolvedWindows prometheus.Counter
}

var _ query.Observer = (*Collector)(nil)

// New creates an unregistered collector.
func New() *Collector {
	c := &Collector{}

	c.classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Merchant classifications by outcome",
	}, []string{"outcome"})

	c.guardrailVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guardrail_verdicts_total",
		Help:      "SQL guardrail verdicts by reason (accepted for passing queries)",
	}, []string{"reason"})

	c.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Resolved queries by intent kind, template and status",
	}, []string{"kind", "template", "status"})

	c.queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Time spent resolving a query intent",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"kind"})

	c.unresolvedWindows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unresolved_query_windows_total",
		Help:      "Dynamic queries executed without a recovered date window",
	})

	return c
}

// Register adds every metric to reg.
func (c *Collector) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.classifications,
		c.guardrailVerdicts,
		c.queries,
		c.queryDuration,
		c.unresolvedWindows,
	)
}

// Outcome maps a classification result onto its metric label.
func Outcome(r model.ClassificationResult) string {
	switch {
	case !r.Matched():
		return OutcomeNone
	case r.Ambiguous():
		return OutcomeAmbiguous
	case r.Source == model.SourceExplicit:
		return OutcomeExplicit
	case r.Source == model.SourceName:
		return OutcomeName
	default:
		return OutcomeRule
	}
}

// Classified records one classification.
func (c *Collector) Classified(r model.ClassificationResult) {
	c.classifications.WithLabelValues(Outcome(r)).Inc()
}

// GuardrailVerdict implements query.Observer.
func (c *Collector) GuardrailVerdict(v guardrail.Verdict) {
	reason := "accepted"
	if !v.Accepted {
		reason = string(v.Reason)
	}
	c.guardrailVerdicts.WithLabelValues(reason).Inc()
}

// QueryResolved implements query.Observer.
func (c *Collector) QueryResolved(kind, template string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.queries.WithLabelValues(kind, template, status).Inc()
	c.queryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// UnresolvedWindow implements query.Observer.
func (c *Collector) UnresolvedWindow() {
	c.unresolvedWindows.Inc()
}
