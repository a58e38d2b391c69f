package http

import (
	"net/http"

	"caisse/internal/core"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.store.ListInvoices(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(invoices))
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in core.NewInvoice
	if err := s.parser.Parse(w, r, &in); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	in.ClientPhone = s.formatPhone(in.ClientPhone)

	inv, err := in.ToInvoice(currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	inv, err = s.bookkeeper.CreateInvoice(r.Context(), inv)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	Created(w, inv)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	inv, err := lookup(s.store.GetInvoice(r.Context(), id, currentUser(r).ID))
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	OK(w, inv)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	var patch core.InvoicePatch
	if err := s.parser.Parse(w, r, &patch); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	patch.ClientPhone = s.formatPhone(patch.ClientPhone)

	inv, err := s.bookkeeper.UpdateInvoice(r.Context(), id, currentUser(r).ID, patch)
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	OK(w, inv)
}

// handleDeleteInvoice removes the invoice. Its ledger transaction stays.
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	if err := s.bookkeeper.DeleteInvoice(r.Context(), id, currentUser(r).ID); err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	NoContent(w)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
