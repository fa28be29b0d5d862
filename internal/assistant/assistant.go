// Package assistant answers spending questions and records expenses from
// short chat messages by combining the parser, the classifier, the LLM
// router and the query engine.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/classification"
	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/llm"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/Veraticus/finassist/internal/service"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotAnExpense is returned when a message cannot be parsed as an expense.
	ErrNotAnExpense = errors.New("message is not an expense")
	// ErrSuspiciousAmount is returned when a parsed amount exceeds the configured ceiling.
	ErrSuspiciousAmount = errors.New("amount exceeds the allowed maximum")
	// ErrCategoryNotFound is returned when a chosen category is not in the live set.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrAmbiguous marks a recording that needs a category choice before it is saved.
	ErrAmbiguous = errors.New("category is ambiguous")
	// ErrEmptyQuestion is returned by Ask for blank questions without a template or SQL.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNoGenerator is returned when a question needs generated SQL but no generator is configured.
	ErrNoGenerator = errors.New("no SQL generator configured")
)

// Router picks a fixed template for a question when one fits.
type Router interface {
	Route(ctx context.Context, question string) (llm.Decision, error)
}

// SQLGenerator writes a SELECT statement answering a question.
type SQLGenerator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// ClassificationRecorder is told about every classification the assistant makes.
type ClassificationRecorder interface {
	Classified(r model.ClassificationResult)
}

// Assistant is safe for concurrent use when its collaborators are.
type Assistant struct {
	store      service.Store
	engine     *query.Engine
	classifier *classification.Classifier
	router     Router
	generator  SQLGenerator
	recorder   ClassificationRecorder
	rates      Rates
	logger     *slog.Logger
	now        func() time.Time
	location   *time.Location
	maxAmount  decimal.Decimal
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithRouter enables template routing for free-form questions.
func WithRouter(r Router) Option {
	return func(a *Assistant) { a.router = r }
}

// WithSQLGenerator enables generated SQL for questions no template answers.
func WithSQLGenerator(g SQLGenerator) Option {
	return func(a *Assistant) { a.generator = g }
}

// WithRecorder reports classifications to r.
func WithRecorder(r ClassificationRecorder) Option {
	return func(a *Assistant) { a.recorder = r }
}

// WithRates converts foreign currency expenses to MXN before they are saved.
func WithRates(r Rates) Option {
	return func(a *Assistant) { a.rates = r }
}

// WithMaxAmount rejects parsed amounts above limit. Zero disables the check.
func WithMaxAmount(limit decimal.Decimal) Option {
	return func(a *Assistant) { a.maxAmount = limit }
}

// WithClock sets the clock used to date new expenses.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithLocation sets the zone in which "today" is computed.
func WithLocation(loc *time.Location) Option {
	return func(a *Assistant) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an assistant over store. Questions are answered by engine and
// merchants are classified by classifier.
func New(store service.Store, engine *query.Engine, classifier *classification.Classifier, opts ...Option) *Assistant {
	a := &Assistant{
		store:      store,
		engine:     engine,
		classifier: classifier,
		logger:     slog.Default(),
		now:        time.Now,
		location:   time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AskOptions overrides routing for a question. CustomSQL wins over Template,
// and Template over the router.
type AskOptions struct {
	Template  string
	Month     string
	CustomSQL string
	Year      int
	Limit     int
}

// Answer is a resolved question.
type Answer struct {
	*query.Result
	Question  string `json:"question,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	SQL       string `json:"sql,omitempty"`
}

// Ask answers question. Router failures fall back to generated SQL.
func (a *Assistant) Ask(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	question = strings.TrimSpace(question)
	intent, answer, err := a.intent(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	result, err := a.engine.Resolve(ctx, intent)
	if err != nil {
		return nil, err
	}
	answer.Result = result
	return answer, nil
}

func (a *Assistant) intent(ctx context.Context, question string, opts AskOptions) (query.Intent, *Answer, error) {
	answer := &Answer{Question: question}

	if sql := strings.TrimSpace(opts.CustomSQL); sql != "" {
		answer.SQL = sql
		return query.CustomRaw{SQL: sql}, answer, nil
	}

	if opts.Template != "" {
		t, err := query.ParseTemplate(opts.Template)
		if err != nil {
			return nil, nil, err
		}
		return query.FixedTemplate{
			Template: t,
			Params:   query.TemplateParams{Month: opts.Month, Year: opts.Year, Limit: opts.Limit},
		}, answer, nil
	}

	if question == "" {
		return nil, nil, ErrEmptyQuestion
	}

	if a.router != nil {
		decision, err := a.router.Route(ctx, question)
		switch {
		case err != nil:
			a.logger.Warn("router failed, falling back to generated SQL", "question", question, "error", err)
		case decision.HasTemplate:
			answer.Reasoning = decision.Reasoning
			return query.FixedTemplate{
				Template: decision.Template,
				Params:   query.TemplateParams{Limit: opts.Limit},
			}, answer, nil
		default:
			answer.Reasoning = decision.Reasoning
		}
	}

	if a.generator == nil {
		return nil, nil, ErrNoGenerator
	}
	sql, err := a.generator.Generate(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	answer.SQL = sql
	return query.Dynamic{SQL: sql, Question: question}, answer, nil
}

// Classify classifies merchant against the live categories without saving
// anything.
func (a *Assistant) Classify(ctx context.Context, merchant, explicitCategory string) (model.ClassificationResult, error) {
	categories, err := service.Categories(ctx, a.store)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	result := a.classifier.Classify(merchant, categories, explicitCategory)
	if a.recorder != nil {
		a.recorder.Classified(result)
	}
	return result, nil
}

// Validate runs the guardrail over sql.
func (a *Assistant) Validate(sql string) guardrail.Verdict {
	return a.engine.Validate(sql)
}

func (a *Assistant) today() time.Time {
	t := a.now().In(a.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
