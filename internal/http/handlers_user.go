package http

import (
	"net/http"

	"caisse/internal/core"
)

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	OK(w, currentUser(r))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch core.UserPatch
	if err := s.parser.Parse(w, r, &patch); err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	patch.Phone = s.formatPhone(patch.Phone)

	user, err := s.bookkeeper.UpdateUser(r.Context(), currentUser(r).ID, patch)
	if err != nil {
		writeError(w, r, err, MsgUserNotFound, MsgInternal)
		return
	}
	OK(w, user)
}
