package http

import (
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.DashboardSummary(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, summary)
}

// handleFinancialSummary reports one period, the current one unless month
// and year are given.
func (s *Server) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	summary, err := s.reports.FinancialSummary(r.Context(), currentUser(r).ID, period)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, summary)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	data, err := s.reports.ChartData(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err, "", MsgInternal)
		return
	}
	OK(w, data)
}
