package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendyfy/internal/auth"
	"spendyfy/internal/core"
	"spendyfy/internal/services"
	"spendyfy/internal/storage"
)

// envelope is the uniform response body. Success responses carry data
// and optionally pagination; failures carry error plus, for validation
// failures, the per-field errors slice.
type envelope struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data,omitempty"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	Errors     []fieldError `json:"errors,omitempty"`
	Pagination *pagination  `json:"pagination,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func newPagination(page, limit int, total int64) *pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return &pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func respondPage(w http.ResponseWriter, data any, p *pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: p})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

func respondValidationErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Error:   "Validation failed",
		Errors:  errs,
	})
}

// domainFieldErrors maps core validation sentinels onto per-field
// messages so handler responses stay uniform regardless of whether the
// request body or the domain layer caught the problem.
func domainFieldError(err error) (fieldError, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidTitle):
		return fieldError{Field: "title", Message: "title must be between 3 and 100 characters"}, true
	case errors.Is(err, core.ErrInvalidAmount):
		return fieldError{Field: "amount", Message: "amount must be greater than 0"}, true
	case errors.Is(err, core.ErrInvalidCategory):
		return fieldError{Field: "category", Message: "category is not a known category"}, true
	case errors.Is(err, core.ErrInvalidDate):
		return fieldError{Field: "date", Message: "date must be a valid calendar date"}, true
	case errors.Is(err, core.ErrDescriptionTooLong):
		return fieldError{Field: "description", Message: "description must be at most 500 characters"}, true
	case errors.Is(err, core.ErrInvalidPaymentMethod):
		return fieldError{Field: "paymentMethod", Message: "paymentMethod is not a known payment method"}, true
	case errors.Is(err, services.ErrInvalidBudget):
		return fieldError{Field: "monthlyBudget", Message: "monthlyBudget must not be negative"}, true
	}
	return fieldError{}, false
}

// respondBadBody reports a body decode failure. Domain sentinels raised
// by custom unmarshalers (amount, date) still surface as field errors.
func respondBadBody(w http.ResponseWriter, err error) {
	if fe, ok := domainFieldError(err); ok {
		respondValidationErrors(w, []fieldError{fe})
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

// respondServiceError translates service failures into HTTP responses.
// Unexpected errors are logged server-side and surfaced as a generic
// message so internals never leak into responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	if fe, ok := domainFieldError(err); ok {
		respondValidationErrors(w, []fieldError{fe})
		return
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
