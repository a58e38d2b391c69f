package http

import (
	"net/http"

	"caisse/internal/core"
)

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req core.AdviceRequest
	if err := s.parser.DecodeJSON(w, r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, MsgQuestionRequired).Write(w)
		return
	}
	req.Normalize()
	if req.Question == "" {
		ErrorResponse(http.StatusBadRequest, MsgQuestionRequired).Write(w)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		writeError(w, r, err, "", MsgAdviceFailed)
		return
	}
	if s.advisor == nil {
		writeError(w, r, core.ErrAdviceUnavailable, "", MsgAdviceFailed)
		return
	}

	advice, err := s.advisor.Advice(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err, "", MsgAdviceFailed)
		return
	}
	OK(w, advice)
}

func (s *Server) handleAnalyzeTrends(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, r, core.ErrAdviceUnavailable, "", MsgTrendsFailed)
		return
	}
	trends, err := s.advisor.AnalyzeTrends(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgTrendsFailed)
		return
	}
	OK(w, trends)
}
