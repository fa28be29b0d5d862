package assistant

import (
	"context"
	"fmt"

	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/parser"
	"github.com/Veraticus/finassist/internal/service"
)

// Status is the outcome of a recording attempt.
type Status string

const (
	// StatusSaved means the expense was written.
	StatusSaved Status = "saved"
	// StatusPending means the caller must pick a category from the suggestions.
	StatusPending Status = "pending"
)

// Recording is the outcome of Record or Confirm.
type Recording struct {
	Expense        *model.Expense             `json:"expense,omitempty"`
	Parsed         *parser.ParsedExpense      `json:"parsed"`
	Status         Status                     `json:"status"`
	Classification model.ClassificationResult `json:"classification"`
}

// Pending reports whether the expense still needs a category.
func (r *Recording) Pending() bool {
	return r.Status == StatusPending
}

// Err returns ErrAmbiguous for pending recordings and nil otherwise.
func (r *Recording) Err() error {
	if r.Pending() {
		return fmt.Errorf("%w: %q", ErrAmbiguous, r.Parsed.Merchant)
	}
	return nil
}

// Record parses text, classifies the merchant and saves the expense for
// userID. When the category is ambiguous, or known only to the rule table,
// nothing is written and a pending recording carrying suggestions is
// returned. explicitCategory is a hint; when it names no live category the
// merchant text decides.
func (a *Assistant) Record(ctx context.Context, text, userID, explicitCategory string) (*Recording, error) {
	parsed, err := a.parse(text)
	if err != nil {
		return nil, err
	}

	result, err := a.Classify(ctx, parsed.Merchant, explicitCategory)
	if err != nil {
		return nil, err
	}

	rec := &Recording{Parsed: parsed, Classification: result}
	if result.Ambiguous() || !result.Resolved() {
		rec.Status = StatusPending
		a.logger.Info("expense needs a category",
			"merchant", parsed.Merchant,
			"category", result.CategoryName,
			"confidence", result.Confidence,
			"suggestions", len(result.Suggestions))
		return rec, nil
	}

	saved, err := a.save(ctx, parsed, userID, result.CategoryID)
	if err != nil {
		return nil, err
	}
	rec.Status = StatusSaved
	rec.Expense = saved
	return rec, nil
}

// Confirm saves a previously pending expense under categoryID, which must be
// a live category.
func (a *Assistant) Confirm(ctx context.Context, parsed *parser.ParsedExpense, userID, categoryID string) (*Recording, error) {
	categories, err := service.Categories(ctx, a.store)
	if err != nil {
		return nil, err
	}

	var chosen *model.Category
	for i := range categories {
		if categories[i].ID == categoryID {
			chosen = &categories[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: id %q", ErrCategoryNotFound, categoryID)
	}

	saved, err := a.save(ctx, parsed, userID, chosen.ID)
	if err != nil {
		return nil, err
	}
	return &Recording{
		Expense: saved,
		Parsed:  parsed,
		Status:  StatusSaved,
		Classification: model.ClassificationResult{
			CategoryName: chosen.Name,
			CategoryID:   chosen.ID,
			Confidence:   model.ConfidenceExplicitExact,
			Source:       model.SourceExplicit,
			Suggestions:  model.Suggestions{},
		},
	}, nil
}

// Parse runs the expense parser and the amount ceiling without touching the store.
func (a *Assistant) Parse(text string) (*parser.ParsedExpense, error) {
	return a.parse(text)
}

func (a *Assistant) parse(text string) (*parser.ParsedExpense, error) {
	parsed, ok := parser.ParseMessage(text)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotAnExpense, text)
	}
	if a.maxAmount.IsPositive() && parsed.Amount.GreaterThan(a.maxAmount) {
		return nil, fmt.Errorf("%w: %s %s", ErrSuspiciousAmount, parsed.Amount.String(), parsed.Currency)
	}
	return parsed, nil
}

func (a *Assistant) save(ctx context.Context, parsed *parser.ParsedExpense, userID, categoryID string) (*model.Expense, error) {
	paidBy, err := a.userName(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount, currency := parsed.Amount, parsed.Currency
	if currency != model.DefaultCurrency && a.rates != nil {
		if rate, ok := a.rates.Rate(currency); ok {
			amount = amount.Mul(rate).Round(2)
			currency = model.DefaultCurrency
			a.logger.Info("converted expense amount",
				"from", parsed.Currency,
				"original", parsed.Amount.String(),
				"converted", amount.String(),
				"rate", rate.String())
		} else {
			a.logger.Warn("no conversion rate, keeping original currency", "currency", parsed.Currency)
		}
	}

	expense := model.Expense{
		UserID:           userID,
		CategoryID:       categoryID,
		Detail:           parsed.Merchant,
		Amount:           amount.InexactFloat64(),
		Currency:         currency,
		OriginalAmount:   parsed.Amount.InexactFloat64(),
		OriginalCurrency: parsed.Currency,
		Date:             a.today(),
		PaidBy:           paidBy,
	}

	saved, err := a.store.InsertExpense(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	a.logger.Info("recorded expense",
		"id", saved.ID,
		"merchant", saved.Detail,
		"amount", saved.Amount,
		"currency", saved.Currency,
		"category_id", saved.CategoryID)
	return saved, nil
}

// userName resolves userID for the paid_by column. Unknown users record an
// empty payer.
func (a *Assistant) userName(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	rows, err := a.store.Fetch(ctx, service.Query{
		Table:   service.TableUsers,
		Columns: []string{"id", "name"},
		Filters: []service.Filter{service.Eq("id", userID)},
		Limit:   1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if len(rows) == 0 {
		a.logger.Warn("recording expense for unknown user", "user_id", userID)
		return "", nil
	}
	return rows[0].String("name"), nil
}
