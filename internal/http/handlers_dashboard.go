package http

import (
	"log/slog"
	"net/http"

	"fintrack/internal/contract"
	"fintrack/internal/core"
)

// handleDashboardSummary aggregates the user's full ledger into
// income/expense totals and the category breakdown the dashboard
// chart renders.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request, user userContext) {
	list, err := s.userTransactions(r.Context(), user.ID, core.TransactionFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard summary failed", "error", err, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}

	writeJSON(w, contract.DashboardSummary.Success, core.Summarize(list))
}
