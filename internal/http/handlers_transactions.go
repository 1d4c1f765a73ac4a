package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/contract"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user userContext) {
	filter, fe := contract.DecodeFilter(r.URL.Query())
	if fe != nil {
		writeFieldError(w, fe)
		return
	}

	list, err := s.userTransactions(r.Context(), user.ID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	writeJSON(w, contract.TransactionList.Success, list)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, user userContext) {
	tx, ok := s.ownedTransaction(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, contract.TransactionGet.Success, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user userContext) {
	payload, ok := decodeJSON[contract.TransactionPayload](w, r)
	if !ok {
		return
	}
	in, fe := payload.Validate()
	if fe != nil {
		writeFieldError(w, fe)
		return
	}

	tx, err := s.store.CreateTransaction(r.Context(), user.ID, in)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	s.invalidateTransactions(user.ID)
	writeJSON(w, contract.TransactionCreate.Success, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user userContext) {
	tx, ok := s.ownedTransaction(w, r, user)
	if !ok {
		return
	}

	patch, ok := decodeJSON[contract.TransactionPatch](w, r)
	if !ok {
		return
	}
	upd, fe := patch.Validate()
	if fe != nil {
		writeFieldError(w, fe)
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), tx.ID, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update transaction failed", "error", err, "id", tx.ID, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	s.invalidateTransactions(user.ID)
	writeJSON(w, contract.TransactionUpdate.Success, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user userContext) {
	tx, ok := s.ownedTransaction(w, r, user)
	if !ok {
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), tx.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "id", tx.ID, "user_id", user.ID)
		writeMessage(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	s.invalidateTransactions(user.ID)
	w.WriteHeader(contract.TransactionDelete.Success)
}

// ownedTransaction loads the {id} transaction and enforces ownership.
// Missing rows and rows owned by someone else both answer 404 so a
// caller cannot probe which ids exist.
func (s *Server) ownedTransaction(w http.ResponseWriter, r *http.Request, user userContext) (core.Transaction, bool) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Transaction not found")
		return core.Transaction{}, false
	}

	tx, err := s.store.GetTransaction(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Transaction not found")
		return core.Transaction{}, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Fetch transaction failed", "error", err, "id", id)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch transaction")
		return core.Transaction{}, false
	}
	if tx.UserID != user.ID {
		writeMessage(w, http.StatusNotFound, "Transaction not found")
		return core.Transaction{}, false
	}
	return tx, true
}
