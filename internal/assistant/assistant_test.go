package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/finassist/internal/classification"
	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/llm"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/query"
	"github.com/Veraticus/finassist/internal/service"
	"github.com/Veraticus/finassist/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

type stubRouter struct {
	err      error
	decision llm.Decision
	calls    int
}

func (r *stubRouter) Route(context.Context, string) (llm.Decision, error) {
	r.calls++
	return r.decision, r.err
}

type stubGenerator struct {
	err   error
	sql   string
	calls int
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return g.sql, g.err
}

type countingRecorder struct {
	results []model.ClassificationResult
}

func (r *countingRecorder) Classified(res model.ClassificationResult) {
	r.results = append(r.results, res)
}

func newTestAssistant(t *testing.T, store *testutil.MemoryStore, opts ...Option) *Assistant {
	t.Helper()

	policy, err := guardrail.DefaultPolicy()
	require.NoError(t, err)
	rules, err := classification.DefaultRuleTable()
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	engine := query.NewEngine(store, policy, query.WithClock(clock), query.WithLocation(time.UTC))
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(store, engine, classification.NewClassifier(rules, nil), opts...)
}

func TestAsk(t *testing.T) {
	store := testutil.NewMemoryStore()
	food := store.AddCategory("Groceries")
	store.AddExpense(model.Expense{CategoryID: food.ID, Amount: 40, Date: fixedNow, Detail: "Costco"})
	store.AddExpense(model.Expense{CategoryID: food.ID, Amount: 60, Date: fixedNow, Detail: "Walmart"})

	t.Run("router picks a template", func(t *testing.T) {
		router := &stubRouter{decision: llm.Decision{HasTemplate: true, Template: query.TodayTotal, Reasoning: "today"}}
		gen := &stubGenerator{}
		a := newTestAssistant(t, store, WithRouter(router), WithSQLGenerator(gen))

		answer, err := a.Ask(context.Background(), "how much did we spend today?", AskOptions{})
		require.NoError(t, err)
		assert.Equal(t, "template", answer.Kind)
		assert.Equal(t, "today_total", answer.Template)
		assert.Equal(t, []model.Row{{"total": 100.0}}, answer.Rows)
		assert.Equal(t, "today", answer.Reasoning)
		assert.Zero(t, gen.calls)
	})

	t.Run("no template falls through to generated SQL", func(t *testing.T) {
		router := &stubRouter{decision: llm.Decision{Reasoning: "needs a merchant filter"}}
		gen := &stubGenerator{sql: "SELECT SUM(amount) FROM expenses WHERE expense_date >= '2024-03-01'"}
		a := newTestAssistant(t, store, WithRouter(router), WithSQLGenerator(gen))

		answer, err := a.Ask(context.Background(), "how much at costco in march?", AskOptions{})
		require.NoError(t, err)
		assert.Equal(t, "dynamic", answer.Kind)
		assert.Equal(t, gen.sql, answer.SQL)
		assert.Equal(t, 1, router.calls)
		assert.Equal(t, 1, gen.calls)
	})

	t.Run("router failure falls back to generated SQL", func(t *testing.T) {
		router := &stubRouter{err: errors.New("boom")}
		gen := &stubGenerator{sql: "SELECT SUM(amount) FROM expenses WHERE expense_date >= '2024-03-01'"}
		a := newTestAssistant(t, store, WithRouter(router), WithSQLGenerator(gen))

		answer, err := a.Ask(context.Background(), "spend in march?", AskOptions{})
		require.NoError(t, err)
		assert.Equal(t, "dynamic", answer.Kind)
	})

	t.Run("forced template skips the router", func(t *testing.T) {
		router := &stubRouter{}
		a := newTestAssistant(t, store, WithRouter(router))

		answer, err := a.Ask(context.Background(), "", AskOptions{Template: "custom_month_category", Month: "march", Year: 2024})
		require.NoError(t, err)
		assert.Equal(t, "custom_month_category", answer.Template)
		assert.Zero(t, router.calls)
	})

	t.Run("custom SQL wins over template", func(t *testing.T) {
		a := newTestAssistant(t, store)

		answer, err := a.Ask(context.Background(), "", AskOptions{
			Template:  "week_total",
			CustomSQL: "SELECT * FROM expenses WHERE expense_date >= '2024-03-15'",
		})
		require.NoError(t, err)
		assert.Equal(t, "custom", answer.Kind)
		assert.Len(t, answer.Rows, 2)
	})

	t.Run("generated SQL is still guarded", func(t *testing.T) {
		gen := &stubGenerator{sql: "DELETE FROM expenses"}
		a := newTestAssistant(t, store, WithSQLGenerator(gen))

		_, err := a.Ask(context.Background(), "delete everything", AskOptions{})
		assert.ErrorIs(t, err, guardrail.ErrRejected)
	})

	t.Run("errors", func(t *testing.T) {
		a := newTestAssistant(t, store)

		_, err := a.Ask(context.Background(), "  ", AskOptions{})
		assert.ErrorIs(t, err, ErrEmptyQuestion)

		_, err = a.Ask(context.Background(), "anything?", AskOptions{})
		assert.ErrorIs(t, err, ErrNoGenerator)

		_, err = a.Ask(context.Background(), "", AskOptions{Template: "yearly_total"})
		assert.ErrorIs(t, err, query.ErrUnknownTemplate)

		_, err = a.Ask(context.Background(), "", AskOptions{Template: "custom_month_budget"})
		assert.ErrorIs(t, err, query.ErrMissingParams)
	})
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("confident match is saved", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		food := store.AddCategory("Groceries")
		store.AddCategory("Rent")
		ana := store.AddUser("Ana")
		rec := &countingRecorder{}
		a := newTestAssistant(t, store, WithRecorder(rec))

		got, err := a.Record(ctx, "Costco 120.54", ana.ID, "")
		require.NoError(t, err)
		require.NoError(t, got.Err())
		assert.Equal(t, StatusSaved, got.Status)
		require.NotNil(t, got.Expense)
		assert.Equal(t, food.ID, got.Expense.CategoryID)
		assert.Equal(t, "Ana", got.Expense.PaidBy)
		assert.Equal(t, model.DefaultCurrency, got.Expense.Currency)
		assert.InDelta(t, 120.54, got.Expense.Amount, 1e-9)
		assert.Equal(t, "2024-03-15", got.Expense.Date.Format(model.DateLayout))
		assert.Len(t, rec.results, 1)
	})

	t.Run("explicit category wins", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Groceries")
		rent := store.AddCategory("Rent")
		a := newTestAssistant(t, store)

		got, err := a.Record(ctx, "Costco 900", "", "rent")
		require.NoError(t, err)
		assert.Equal(t, StatusSaved, got.Status)
		assert.Equal(t, rent.ID, got.Expense.CategoryID)
		assert.Equal(t, model.SourceExplicit, got.Classification.Source)
	})

	t.Run("unknown merchant is pending with suggestions", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Groceries")
		store.AddCategory("Rent")
		a := newTestAssistant(t, store)

		got, err := a.Record(ctx, "zzqx 50", "", "")
		require.NoError(t, err)
		assert.True(t, got.Pending())
		assert.ErrorIs(t, got.Err(), ErrAmbiguous)
		assert.Nil(t, got.Expense)
		assert.NotEmpty(t, got.Classification.Suggestions)

		rows, err := store.Fetch(ctx, service.Query{Table: service.TableExpenses})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("rule category missing from live set is pending", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Rent")
		a := newTestAssistant(t, store)

		got, err := a.Record(ctx, "Costco 120", "", "")
		require.NoError(t, err)
		assert.True(t, got.Pending())
		assert.Equal(t, "Groceries", got.Classification.CategoryName)
		assert.Empty(t, got.Classification.CategoryID)
	})

	t.Run("foreign currency is converted", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Groceries")
		a := newTestAssistant(t, store, WithRates(NewStaticRates(map[string]float64{"cad": 13.5})))

		got, err := a.Record(ctx, "Costco 10 CAD", "", "")
		require.NoError(t, err)
		assert.Equal(t, model.DefaultCurrency, got.Expense.Currency)
		assert.InDelta(t, 135, got.Expense.Amount, 1e-9)
		assert.InDelta(t, 10, got.Expense.OriginalAmount, 1e-9)
		assert.Equal(t, "CAD", got.Expense.OriginalCurrency)
	})

	t.Run("missing rate keeps original currency", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Groceries")
		a := newTestAssistant(t, store, WithRates(StaticRates{}))

		got, err := a.Record(ctx, "€20 supermarket", "", "")
		require.NoError(t, err)
		assert.Equal(t, "EUR", got.Expense.Currency)
		assert.InDelta(t, 20, got.Expense.Amount, 1e-9)
	})

	t.Run("rejections", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.AddCategory("Groceries")
		a := newTestAssistant(t, store, WithMaxAmount(decimal.NewFromInt(5000)))

		_, err := a.Record(ctx, "how much did we spend in march 2024?", "", "")
		assert.ErrorIs(t, err, ErrNotAnExpense)

		_, err = a.Record(ctx, "Costco 7500", "", "")
		assert.ErrorIs(t, err, ErrSuspiciousAmount)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := testutil.NewMemoryStore()
		store.FailWith(errors.New("connection refused"))
		a := newTestAssistant(t, store)

		_, err := a.Record(ctx, "Costco 12", "", "")
		assert.Error(t, err)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	rent := store.AddCategory("Rent")
	a := newTestAssistant(t, store)

	parsed, err := a.Parse("zzqx 50")
	require.NoError(t, err)

	got, err := a.Confirm(ctx, parsed, "", rent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, got.Status)
	assert.Equal(t, rent.ID, got.Expense.CategoryID)
	assert.Equal(t, "Rent", got.Classification.CategoryName)

	_, err = a.Confirm(ctx, parsed, "", "999")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestClassifyAndValidate(t *testing.T) {
	store := testutil.NewMemoryStore()
	food := store.AddCategory("Groceries")
	rec := &countingRecorder{}
	a := newTestAssistant(t, store, WithRecorder(rec))

	got, err := a.Classify(context.Background(), "COSTCO WHOLESALE", "")
	require.NoError(t, err)
	assert.Equal(t, food.ID, got.CategoryID)
	assert.Len(t, rec.results, 1)

	assert.True(t, a.Validate("SELECT * FROM expenses").Accepted)
	assert.Equal(t, guardrail.ReasonForbiddenKeyword, a.Validate("UPDATE expenses SET amount = 0").Reason)
	assert.Equal(t, guardrail.ReasonNotSelect, a.Validate("SHOW TABLES").Reason)
}

func TestStaticRates(t *testing.T) {
	rates := NewStaticRates(map[string]float64{"usd": 17.25, "GBP": 0})

	rate, ok := rates.Rate("USD")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("17.25")))

	_, ok = rates.Rate("GBP")
	assert.False(t, ok)

	_, ok = rates.Rate("JPY")
	assert.False(t, ok)
}
