// Package httpapi exposes the server over HTTP: device registration, the
// sync protocol, share links, raw blob access and the operational
// endpoints. Responses use a uniform JSON envelope.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/blob"
	sc "github.com/memevault/memevault/internal/server/config"
	"github.com/memevault/memevault/internal/server/consistency"
	"github.com/memevault/memevault/internal/server/devices"
	"github.com/memevault/memevault/internal/server/quota"
	"github.com/memevault/memevault/internal/server/ratelimit"
	"github.com/memevault/memevault/internal/server/share"
	"github.com/memevault/memevault/internal/server/sync"
)

type Server struct {
	cfg         *sc.Config
	registrar   *devices.Service
	sync        *sync.Service
	share       *share.Service
	auditor     *consistency.Auditor
	quota       *quota.Service
	store       blob.Store
	viewLimiter *ratelimit.Limiter
	logger      logging.Logger
}

func NewServer(
	cfg *sc.Config,
	registrar *devices.Service,
	syncSvc *sync.Service,
	shareSvc *share.Service,
	auditor *consistency.Auditor,
	quotaSvc *quota.Service,
	store blob.Store,
	viewLimiter *ratelimit.Limiter,
	l logging.Logger,
) *Server {
	return &Server{
		cfg:         cfg,
		registrar:   registrar,
		sync:        syncSvc,
		share:       shareSvc,
		auditor:     auditor,
		quota:       quotaSvc,
		store:       store,
		viewLimiter: viewLimiter,
		logger:      l.With("module", "httpapi"),
	}
}

// Router builds the chi handler tree. Per-IP request limiting applies to
// everything when enabled; bearer auth only to the device endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if s.cfg.EnableIPRateLimit {
		limits := s.quota.Limits()
		if limits.MaxRequestsPerIPPerHour > 0 {
			r.Use(httprate.LimitByIP(int(limits.MaxRequestsPerIPPerHour), time.Hour))
		}
	}

	// public
	r.Get("/health", s.handleHealth)
	r.Post("/auth/device-register", s.handleRegister)
	r.Get("/s/{shareID}", s.handleGetShare)
	r.Post("/s/{shareID}/import", s.handleImportShare)
	r.Get("/blob/*", s.handleGetBlob)

	// device endpoints
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/sync/pull", s.handlePull)
		r.Post("/sync/push", s.handlePush)

		r.Post("/share/create", s.handleCreateShare)
		r.Get("/share/list", s.handleListShares)
		r.Delete("/share/{shareID}", s.handleDeleteShare)

		r.Post("/blob/upload", s.handleUploadBlob)
		r.Post("/blob/batch-check", s.handleBatchCheck)
		r.Get("/blob/download/*", s.handleDownloadBlob)
		r.Delete("/blob/*", s.handleDeleteBlob)

		r.Post("/consistency/check-orphans", s.handleCheckOrphans)
		r.Post("/consistency/check-missing", s.handleCheckMissing)
		r.Get("/quota/info", s.handleQuotaInfo)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
