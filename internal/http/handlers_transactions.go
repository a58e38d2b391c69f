package http

import (
	"net/http"

	"caisse/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(txs))
}

// handleCreateTransaction records a manual entry, unrelated to any invoice
// or expense.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.NewTransaction
	if err := s.parser.Parse(w, r, &in); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	tx, err := in.ToTransaction(currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	tx, err = s.bookkeeper.RecordTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	Created(w, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgTransactionNotFound, MsgInternal)
		return
	}
	tx, err := lookup(s.store.GetTransaction(r.Context(), id, currentUser(r).ID))
	if err != nil {
		writeError(w, r, err, MsgTransactionNotFound, MsgInternal)
		return
	}
	OK(w, tx)
}
