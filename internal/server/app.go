// Package server initializes and runs the Meme Vault server: it wires the
// repositories, the object store and the services together, starts the HTTP
// endpoint and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/memevault/memevault/internal/logging"
	"github.com/memevault/memevault/internal/server/blob"
	"github.com/memevault/memevault/internal/server/config"
	"github.com/memevault/memevault/internal/server/consistency"
	"github.com/memevault/memevault/internal/server/devices"
	"github.com/memevault/memevault/internal/server/httpapi"
	"github.com/memevault/memevault/internal/server/quota"
	"github.com/memevault/memevault/internal/server/ratelimit"
	"github.com/memevault/memevault/internal/server/repositories/repomanager"
	"github.com/memevault/memevault/internal/server/share"

	ss "github.com/memevault/memevault/internal/server/sync"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	api    *httpapi.Server
	repos  repomanager.RepositoryManager
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	rm, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := blob.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	limits := quota.DefaultLimits()
	quotaSvc := quota.NewService(rm.Assets(), rm.Shares(), limits, logger)

	var viewLimiter *ratelimit.Limiter
	if cfg.EnableIPRateLimit {
		viewLimiter = ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), limits.MaxViewsPerIPPerHour, time.Hour)
	}

	registrar := devices.NewService(
		rm.Devices(), rm.Settings(), rm.ServerConfig(),
		[]byte(cfg.SecretKey), cfg.TokenValidityDuration, logger,
	)
	syncSvc := ss.NewService(rm.Assets(), rm.Tags(), rm.AssetTags(), rm.Settings(), quotaSvc, logger)
	shareSvc := share.NewService(rm.Shares(), rm.Assets(), store, quotaSvc, cfg.PublicBaseURL, logger)
	auditor := consistency.NewAuditor(rm.Assets(), store, logger)

	api := httpapi.NewServer(cfg, registrar, syncSvc, shareSvc, auditor, quotaSvc, store, viewLimiter, logger)

	return &App{config: cfg, logger: logger, api: api, repos: rm}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Conn().Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
