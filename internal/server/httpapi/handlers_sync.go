package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/memevault/memevault/internal/common"
	"github.com/memevault/memevault/internal/server/devices"
	"github.com/memevault/memevault/internal/server/sync"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req devices.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	res, err := s.registrar.Register(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

type pullRequest struct {
	Since int64 `json:"since"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	res, err := s.sync.Pull(r.Context(), req.Since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var batch sync.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}

	res, err := s.sync.Push(r.Context(), deviceID(r), &batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}
