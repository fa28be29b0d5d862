package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/finassist/internal/assistant"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/parser"
	"github.com/shopspring/decimal"
)

type classifyRequest struct {
	Merchant string `json:"merchant"`
	Category string `json:"category,omitempty"`
}

type validateRequest struct {
	SQL string `json:"sql"`
}

type queryRequest struct {
	Question string `json:"question"`
	Template string `json:"template,omitempty"`
	Month    string `json:"month,omitempty"`
	SQL      string `json:"sql,omitempty"`
	Year     int    `json:"year,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type recordRequest struct {
	Text     string `json:"text"`
	UserID   string `json:"user_id,omitempty"`
	Category string `json:"category,omitempty"`
}

type confirmRequest struct {
	Merchant   string          `json:"merchant"`
	Currency   string          `json:"currency,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Merchant) == "" {
		s.badRequest(w, "merchant is required")
		return
	}

	result, err := s.assistant.Classify(r.Context(), req.Merchant, req.Category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.assistant.Validate(req.SQL))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.Question, assistant.AskOptions{
		Template:  req.Template,
		Month:     req.Month,
		Year:      req.Year,
		Limit:     req.Limit,
		CustomSQL: req.SQL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.assistant.Record(r.Context(), req.Text, req.UserID, req.Category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rec.Pending() {
		writeJSON(w, http.StatusAccepted, rec)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Merchant) == "" || !req.Amount.IsPositive() {
		s.badRequest(w, "merchant and a positive amount are required")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}

	parsed := &parser.ParsedExpense{
		Merchant: strings.TrimSpace(req.Merchant),
		Amount:   req.Amount,
		Currency: currency,
	}
	rec, err := s.assistant.Confirm(r.Context(), parsed, req.UserID, req.CategoryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.badRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
