package http

import (
	"net/http"
	"strings"

	"caisse/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	expenses, err := s.store.ListExpenses(r.Context(), currentUser(r).ID, category)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := s.parser.Parse(w, r, &in); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	e, err := in.ToExpense(currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	e, err = s.bookkeeper.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	Created(w, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	e, err := lookup(s.store.GetExpense(r.Context(), id, currentUser(r).ID))
	if err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	OK(w, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	var patch core.ExpensePatch
	if err := s.parser.Parse(w, r, &patch); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	e, err := s.bookkeeper.UpdateExpense(r.Context(), id, currentUser(r).ID, patch)
	if err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	OK(w, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	if err := s.bookkeeper.DeleteExpense(r.Context(), id, currentUser(r).ID); err != nil {
		writeError(w, r, err, MsgExpenseNotFound, MsgInternal)
		return
	}
	NoContent(w)
}
