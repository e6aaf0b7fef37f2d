package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/server/share"
)

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var req share.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	res, err := s.share.Create(r.Context(), deviceID(r), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	if s.viewLimiter.Enabled() && !s.viewLimiter.Allow("share_view:"+clientIP(r)) {
		writeError(w, fmt.Errorf("%w: too many share views", common.ErrRateLimited))
		return
	}

	res, err := s.share.Get(r.Context(), chi.URLParam(r, "shareID"), r.URL.Query().Get("password"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleImportShare(w http.ResponseWriter, r *http.Request) {
	res, err := s.share.Import(r.Context(), chi.URLParam(r, "shareID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	res, err := s.share.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	if err := s.share.Delete(r.Context(), chi.URLParam(r, "shareID")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "share deleted")
}
