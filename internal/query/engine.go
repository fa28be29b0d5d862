package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// Intent is the closed set of requests the engine accepts: FixedTemplate,
// Dynamic or CustomRaw.
type Intent interface {
	kind() string
}

// FixedTemplate runs a named template.
type FixedTemplate struct {
	Params   TemplateParams
	Template Template
}

// Dynamic runs generated SQL, using the question for date and top-N hints.
type Dynamic struct {
	SQL      string
	Question string
}

// CustomRaw runs SQL supplied directly by a user.
type CustomRaw struct {
	SQL string
}

func (FixedTemplate) kind() string { return "template" }
func (Dynamic) kind() string { return "dynamic" }
func (CustomRaw) kind() string { return "custom" }

// Warning flags a condition worth surfacing alongside a successful result.
type Warning string

// WarnUnboundedWindow means no date bound was recovered and every row was scanned.
const WarnUnboundedWindow Warning = "unbounded_window"

// Result is the outcome of a resolved intent. Plan is set for dynamic and
// custom intents.
type Result struct {
	Plan     *ExtractedPlan `json:"plan,omitempty"`
	Kind     string         `json:"kind"`
	Template string         `json:"template,omitempty"`
	Rows     []model.Row    `json:"rows"`
	Warnings []Warning      `json:"warnings,omitempty"`
}

// Observer receives engine events. The metrics package provides one.
type Observer interface {
	GuardrailVerdict(v guardrail.Verdict)
	QueryResolved(kind, template string, elapsed time.Duration, err error)
	UnresolvedWindow()
}

type nopObserver struct{}

func (nopObserver) GuardrailVerdict(guardrail.Verdict) {}
func (nopObserver) QueryResolved(string, string, time.Duration, error) {}
func (nopObserver) UnresolvedWindow() {}

// Engine resolves intents against a row source. It keeps no mutable state
// and is safe for concurrent use.
type Engine struct {
	source   service.RowSource
	policy   *guardrail.Policy
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to anchor relative dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver sets the observer notified of verdicts and query outcomes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine creates an engine over source guarded by policy.
func NewEngine(source service.RowSource, policy *guardrail.Policy, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		policy:   policy,
		observer: nopObserver{},
		logger:   slog.Default(),
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks sql against the engine's guardrail policy.
func (e *Engine) Validate(sql string) guardrail.Verdict {
	v := e.policy.Validate(sql)
	e.observer.GuardrailVerdict(v)
	if !v.Accepted {
		e.logger.Warn("query rejected by guardrail", "reason", v.Reason, "detail", v.Detail)
	}
	return v
}

// Resolve executes an intent. Guardrail rejections are returned as
// *guardrail.RejectedError and nothing is fetched. Store failures are
// returned wrapped; an empty result is not an error.
func (e *Engine) Resolve(ctx context.Context, intent Intent) (*Result, error) {
	start := time.Now()

	var (
		result *Result
		err    error
		name   string
	)

	switch in := intent.(type) {
	case FixedTemplate:
		name = in.Template.String()
		result, err = e.ResolveTemplate(ctx, in.Template, in.Params)
	case Dynamic:
		result, err = e.resolveSQL(ctx, in.kind(), in.SQL, in.Question)
	case CustomRaw:
		result, err = e.resolveSQL(ctx, in.kind(), in.SQL, "")
	default:
		err = fmt.Errorf("%w: unsupported intent %T", ErrUnknownTemplate, intent)
	}

	kind := "unknown"
	if intent != nil {
		kind = intent.kind()
	}
	e.observer.QueryResolved(kind, name, time.Since(start), err)

	return result, err
}

// ResolveDynamic validates and executes generated SQL.
func (e *Engine) ResolveDynamic(ctx context.Context, sql, question string) (*Result, error) {
	return e.Resolve(ctx, Dynamic{SQL: sql, Question: question})
}

// ResolveTemplate runs one fixed template.
func (e *Engine) ResolveTemplate(ctx context.Context, t Template, params TemplateParams) (*Result, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, int(t))
	}

	rows, err := e.runTemplate(ctx, t, params, e.today())
	if err != nil {
		return nil, err
	}

	e.logger.Debug("template executed", "template", t.String(), "rows", len(rows))
	return &Result{Kind: FixedTemplate{}.kind(), Template: t.String(), Rows: rows}, nil
}

func (e *Engine) resolveSQL(ctx context.Context, kind, sql, question string) (*Result, error) {
	if err := e.Validate(sql).Err(); err != nil {
		return nil, err
	}

	plan := Extract(sql, question, e.today())
	result := &Result{Kind: kind, Plan: &plan}

	if plan.Unbounded() {
		result.Warnings = append(result.Warnings, WarnUnboundedWindow)
		e.observer.UnresolvedWindow()
		e.logger.Warn("no date window recovered, scanning all expenses",
			"question", question,
			"sql", sql)
	}

	var err error
	if plan.Budget != nil {
		result.Rows, err = e.executeBudgetPlan(ctx, plan)
	} else {
		result.Rows, err = e.executeExpensePlan(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("dynamic query executed",
		"window", plan.Window.String(),
		"window_source", plan.WindowSource,
		"category", plan.CategoryEquals,
		"aggregation", plan.Aggregation.Kind.String(),
		"rows", len(result.Rows))
	return result, nil
}

func (e *Engine) today() time.Time {
	return dateOf(e.now().In(e.location))
}

func (e *Engine) fetch(ctx context.Context, q service.Query) ([]model.Row, error) {
	rows, err := e.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", q.Table, err)
	}
	return rows, nil
}
