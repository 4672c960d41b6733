package server

import (
	"net/http"
	"strings"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/config"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Budgets.ListBudgets(r.Context(), accountID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var in budget.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.AccountID = accountID(r)

	if err := validateBudgetInput(in); err != nil {
		s.writeError(w, r, err)
		return
	}

	b, err := s.deps.Budgets.SaveBudget(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func validateBudgetInput(in budget.Input) error {
	if strings.TrimSpace(in.Service) == "" {
		return badRequest("service is required")
	}
	if in.Amount <= 0 {
		return badRequest("amount must be positive, got %g", in.Amount)
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return badRequest("currency must be a 3-letter code")
	}
	if len(in.AlertThresholds) > 0 {
		if err := config.ValidateThresholds(in.AlertThresholds); err != nil {
			return badRequest("alertThresholds: %v", err)
		}
	}
	return nil
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b, err := s.deps.Budgets.GetBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if b == nil || b.AccountID != accountID(r) {
		s.writeNotFound(w, "budget")
		return
	}

	if _, err := s.deps.Budgets.DeleteBudget(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) utilization(r *http.Request) ([]budget.Utilization, error) {
	rep, err := s.currentReport(r.Context())
	if err != nil {
		return nil, err
	}
	return s.deps.Budgets.CalculateUtilization(r.Context(), rep.Services, accountID(r))
}

func (s *Server) handleUtilization(w http.ResponseWriter, r *http.Request) {
	utils, err := s.utilization(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, utils)
}

func (s *Server) handleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	utils, err := s.utilization(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.Budgets.GenerateAlerts(r.Context(), utils)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.deps.Budgets.GetNotifications(r.Context(), accountID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleAckNotification(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	notes, err := s.deps.Budgets.GetNotifications(r.Context(), accountID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	owned := lo.ContainsBy(notes, func(n budget.Notification) bool { return n.ID == id })
	if !owned || !s.deps.Budgets.AcknowledgeNotification(id) {
		s.writeNotFound(w, "notification")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "acknowledged": true})
}
