package httpapi

import (
	"fmt"
	"net/http"

	"spendyfy/internal/core"
	"spendyfy/internal/services"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if errs := s.validateStruct(req); errs != nil {
		respondValidationErrors(w, errs)
		return
	}

	expense := core.Expense{
		Title:         req.Title,
		Amount:        req.Amount,
		Category:      core.Category(req.Category),
		Date:          req.Date,
		Description:   req.Description,
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
	}

	created, err := s.expenses.Create(r.Context(), identity(r).Subject, expense)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusCreated, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseListFilter(r, identity(r).Subject)
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	expenses, total, err := s.expenses.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondPage(w, expenses, newPagination(filter.Page, filter.Limit, total))
}

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), 5, 1, 50)
	if err != nil {
		respondValidationErrors(w, []fieldError{{Field: "limit", Message: err.Error()}})
		return
	}

	expenses, err := s.expenses.Recent(r.Context(), identity(r).Subject, limit)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondData(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.Get(r.Context(), identity(r).Subject, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if errs := s.validateStruct(req); errs != nil {
		respondValidationErrors(w, errs)
		return
	}

	patch := services.ExpensePatch{
		Title:       req.Title,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	}
	if req.Category != nil {
		c := core.Category(*req.Category)
		patch.Category = &c
	}
	if req.PaymentMethod != nil {
		m := core.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &m
	}

	updated, err := s.expenses.Update(r.Context(), identity(r).Subject, r.PathValue("id"), patch)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), identity(r).Subject, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondMessage(w, http.StatusOK, "Expense deleted")
}

func (s *Server) handleDeleteAllExpenses(w http.ResponseWriter, r *http.Request) {
	count, err := s.expenses.DeleteAll(r.Context(), identity(r).Subject)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondMessage(w, http.StatusOK, fmt.Sprintf("Deleted %d expenses", count))
}
