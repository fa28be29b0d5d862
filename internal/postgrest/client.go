// Package postgrest implements the row store over a Supabase (PostgREST)
// REST endpoint.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/common"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/service"
)

// Errors returned by the client.
var (
	ErrMissingURL = errors.New("postgrest URL is required")
	ErrMissingKey = errors.New("postgrest API key is required")
	ErrNoRows     = errors.New("insert returned no rows")
)

// Client is a service.Store speaking the PostgREST wire protocol.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	retry      service.RetryOptions
}

var _ service.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(opts service.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the project at baseURL (for example
// https://xyz.supabase.co) authenticated with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingURL
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingKey
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/rest/v1",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// selectParam renders the select list. Embeds are aliased to their As name so
// two embeds of the same table never collide.
func selectParam(q service.Query) string {
	cols := q.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	parts := append([]string(nil), cols...)
	for _, e := range q.Embeds {
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", e.As, e.Table, e.Column))
	}
	return strings.Join(parts, ",")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case time.Time:
		return val.Format(model.DateLayout)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// encodeQuery renders q as PostgREST query parameters.
func encodeQuery(q service.Query) url.Values {
	params := url.Values{}
	params.Set("select", selectParam(q))
	for _, f := range q.Filters {
		params.Add(f.Column, string(f.Op)+"."+formatValue(f.Value))
	}
	if len(q.Order) > 0 {
		orders := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			orders = append(orders, o.Column+"."+dir)
		}
		params.Set("order", strings.Join(orders, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return params
}

// flatten replaces each embedded object with the embedded column's value.
func flatten(rows []model.Row, embeds []service.Embed) {
	for _, row := range rows {
		for _, e := range embeds {
			nested, ok := row[e.As].(map[string]any)
			if !ok {
				row[e.As] = nil
				continue
			}
			row[e.As] = nested[e.Column]
		}
	}
}

// Fetch implements service.RowSource.
func (c *Client) Fetch(ctx context.Context, q service.Query) ([]model.Row, error) {
	if q.Table == "" {
		return nil, fmt.Errorf("postgrest: empty table name")
	}

	endpoint := c.baseURL + "/" + url.PathEscape(q.Table) + "?" + encodeQuery(q).Encode()

	var rows []model.Row
	err := common.WithRetry(ctx, func() error {
		rows = nil
		return c.do(ctx, http.MethodGet, endpoint, nil, nil, &rows)
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", q.Table, err)
	}

	flatten(rows, q.Embeds)
	c.logger.Debug("fetched rows", "table", q.Table, "rows", len(rows))
	return rows, nil
}

type expensePayload struct {
	UserID           *string  `json:"user_id,omitempty"`
	CategoryID       *string  `json:"category_id,omitempty"`
	OriginalAmount   *float64 `json:"original_amount,omitempty"`
	OriginalCurrency *string  `json:"original_currency,omitempty"`
	Detail           string   `json:"expense_detail"`
	Currency         string   `json:"currency"`
	Date             string   `json:"expense_date"`
	PaidBy           string   `json:"paid_by,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	Amount           float64  `json:"amount"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// InsertExpense implements service.ExpenseWriter.
func (c *Client) InsertExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	if expense.Currency == "" {
		expense.Currency = model.DefaultCurrency
	}
	payload := expensePayload{
		UserID:           optional(expense.UserID),
		CategoryID:       optional(expense.CategoryID),
		OriginalCurrency: optional(expense.OriginalCurrency),
		Detail:           expense.Detail,
		Currency:         expense.Currency,
		Date:             expense.Date.Format(model.DateLayout),
		PaidBy:           expense.PaidBy,
		Notes:            expense.Notes,
		Amount:           expense.Amount,
	}
	if expense.OriginalAmount != 0 {
		payload.OriginalAmount = &expense.OriginalAmount
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expense: %w", err)
	}

	var rows []model.Row
	err = common.WithRetry(ctx, func() error {
		rows = nil
		return c.do(ctx, http.MethodPost, c.baseURL+"/"+service.TableExpenses, body,
			map[string]string{"Prefer": "return=representation"}, &rows)
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	saved := expense
	saved.ID = rows[0].String("id")
	if created := rows[0].String("created_at"); created != "" {
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			saved.CreatedAt = ts
		}
	}
	return &saved, nil
}

// do performs one request. Rate limits, server errors and transport failures
// are transient; other error statuses are permanent.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, headers map[string]string, out *[]model.Row) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return common.Permanent(ctx.Err())
		}
		return common.Transient(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.TransientAfter(fmt.Errorf("%w (status %d): %s", common.ErrStoreUnavailable, resp.StatusCode, raw),
			common.RetryAfter(resp.Header, time.Now()))
	case resp.StatusCode >= 500:
		return common.Transient(fmt.Errorf("%w (status %d): %s", common.ErrStoreUnavailable, resp.StatusCode, raw))
	default:
		return common.Permanent(fmt.Errorf("%w (status %d): %s", common.ErrUpstream, resp.StatusCode, raw))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return common.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
