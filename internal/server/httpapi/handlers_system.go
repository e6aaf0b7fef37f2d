package httpapi

import "net/http"

func (s *Server) handleCheckOrphans(w http.ResponseWriter, r *http.Request) {
	report, err := s.auditor.CheckOrphans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleCheckMissing(w http.ResponseWriter, r *http.Request) {
	report, err := s.auditor.CheckMissing(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleQuotaInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.quota.Info(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, info)
}
