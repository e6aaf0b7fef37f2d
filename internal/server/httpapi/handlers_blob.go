package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/memevault/memevault/internal/common"
)

// batchCheckMax caps how many keys one batch-check may probe.
const batchCheckMax = 100

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, fmt.Errorf("%w: blob key is required", common.ErrValidation))
		return
	}

	obj, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer obj.Body.Close()

	// content-addressed keys never change, cache hard
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	_, _ = io.Copy(w, obj.Body)
}

type uploadResult struct {
	Key string `json:"key"`
}

func (s *Server) handleUploadBlob(w http.ResponseWriter, r *http.Request) {
	contentHash := r.Header.Get("X-Content-Hash")
	fileName := r.Header.Get("X-File-Name")
	if contentHash == "" || fileName == "" {
		writeError(w, fmt.Errorf("%w: X-Content-Hash and X-File-Name headers are required", common.ErrValidation))
		return
	}

	if check := s.quota.CheckGlobal(r.Context()); !check.Allowed {
		writeError(w, fmt.Errorf("%w: %s", common.ErrQuotaExceeded, check.Reason))
		return
	}

	ext := path.Ext(fileName)
	if ext == "" {
		ext = ".bin"
	}
	key := "assets/" + contentHash + ext

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.Put(r.Context(), key, r.Body, contentType); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, uploadResult{Key: key})
}

type batchCheckRequest struct {
	Keys []string `json:"keys"`
}

type batchCheckResult struct {
	Existing []string `json:"existing"`
	Missing  []string `json:"missing"`
}

// handleBatchCheck probes up to batchCheckMax keys concurrently so devices
// can skip uploading blobs the server already holds.
func (s *Server) handleBatchCheck(w http.ResponseWriter, r *http.Request) {
	var req batchCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", common.ErrValidation))
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, fmt.Errorf("%w: keys is required", common.ErrValidation))
		return
	}
	if len(req.Keys) > batchCheckMax {
		writeError(w, fmt.Errorf("%w: at most %d keys per check", common.ErrValidation, batchCheckMax))
		return
	}

	exists := make([]bool, len(req.Keys))
	var wg sync.WaitGroup
	for i, key := range req.Keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			_, err := s.store.Head(r.Context(), key)
			exists[i] = err == nil
		}(i, key)
	}
	wg.Wait()

	result := batchCheckResult{Existing: []string{}, Missing: []string{}}
	for i, key := range req.Keys {
		if exists[i] {
			result.Existing = append(result.Existing, key)
		} else {
			result.Missing = append(result.Missing, key)
		}
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleDownloadBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, fmt.Errorf("%w: blob key is required", common.ErrValidation))
		return
	}

	obj, err := s.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+path.Base(key)+"\"")
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	_, _ = io.Copy(w, obj.Body)
}

func (s *Server) handleDeleteBlob(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, fmt.Errorf("%w: blob key is required", common.ErrValidation))
		return
	}

	if err := s.store.Delete(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "blob deleted")
}
