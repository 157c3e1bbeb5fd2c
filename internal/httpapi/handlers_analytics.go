package httpapi

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, errs := parseDateRange(q.Get("startDate"), q.Get("endDate"))
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	totals, err := s.analytics.Dashboard(r.Context(), identity(r).Subject, rng)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, totals)
}

func (s *Server) handleCategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, errs := parseDateRange(q.Get("startDate"), q.Get("endDate"))
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	analytics, err := s.analytics.CategoryAnalytics(r.Context(), identity(r).Subject, rng)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, analytics)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	months, err := parseLimit(r.URL.Query().Get("months"), 12, 1, 60)
	if err != nil {
		respondValidationErrors(w, []fieldError{{Field: "months", Message: err.Error()}})
		return
	}

	trends, err := s.analytics.MonthlyTrends(r.Context(), identity(r).Subject, months)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, trends)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	comparison, err := s.analytics.Comparison(r.Context(), identity(r).Subject)
	if err != nil {
		respondServiceError(w, r, err, "Expense not found")
		return
	}
	respondData(w, http.StatusOK, comparison)
}
