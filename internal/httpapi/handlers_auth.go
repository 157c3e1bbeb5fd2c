package httpapi

import (
	"net/http"

	"spendyfy/internal/services"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetOrCreate(r.Context(), identity(r))
	if err != nil {
		respondServiceError(w, r, err, "User not found")
		return
	}
	respondData(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if errs := s.validateStruct(req); errs != nil {
		respondValidationErrors(w, errs)
		return
	}

	patch := services.ProfilePatch{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MonthlyBudget: req.MonthlyBudget,
		Categories:    req.Categories,
	}

	user, err := s.users.UpdateProfile(r.Context(), identity(r), patch)
	if err != nil {
		respondServiceError(w, r, err, "User not found")
		return
	}
	respondData(w, http.StatusOK, user)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteAccount(r.Context(), identity(r)); err != nil {
		respondServiceError(w, r, err, "User not found")
		return
	}
	respondMessage(w, http.StatusOK, "Account deleted")
}
