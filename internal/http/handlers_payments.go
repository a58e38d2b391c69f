package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"caisse/internal/core"
)

func (s *Server) handleListPaymentLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.store.ListPaymentLinks(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, nonNil(links))
}

// handleCreatePaymentLink answers 404 when the invoice is unknown to the user.
func (s *Server) handleCreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var in core.NewPaymentLink
	if err := s.parser.Parse(w, r, &in); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	link, err := s.bookkeeper.CreatePaymentLink(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeError(w, r, err, MsgInvoiceNotFound, MsgInternal)
		return
	}
	Created(w, link)
}

func (s *Server) handleGetPaymentLink(w http.ResponseWriter, r *http.Request) {
	link, err := lookup(s.store.GetPaymentLink(r.Context(), chi.URLParam(r, "linkId"), currentUser(r).ID))
	if err != nil {
		writeError(w, r, err, MsgLinkNotFound, MsgInternal)
		return
	}
	OK(w, link)
}

func (s *Server) handleUpdatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var patch core.PaymentLinkPatch
	if err := s.parser.Parse(w, r, &patch); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	link, err := s.bookkeeper.UpdatePaymentLink(r.Context(), chi.URLParam(r, "linkId"), currentUser(r).ID, patch)
	if err != nil {
		writeError(w, r, err, MsgLinkNotFound, MsgInternal)
		return
	}
	OK(w, link)
}
