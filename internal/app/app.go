// Package app wires the server components together and owns the process
// lifecycle: config validation, store and catalog loading, the sweeper, and
// the HTTP server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/VulcanWM/threadofclues/internal/sweeper"
	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/leaderboard"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/progress"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	kv  *store.Pebble
	cat *catalog.Catalog
	eng *engine.Engine
	agg *progress.Aggregator
	lb  *leaderboard.Service

	srv *http.Server
}

// New initializes resources that do not require a running context (store,
// catalog, runtime keys, services). It does not start the sweeper or the
// HTTP server; call Run to start those and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	// runtime keys for the identity middleware
	config.SetRuntime(&config.RuntimeConfig{
		BackendKeys: config.DeriveBackendKeys(eff.Config),
		SigningKeys: config.DeriveSigningKeys(eff.Config),
	})

	// optional audit sink
	if dir := eff.Config.Storage.AuditDir; dir != "" {
		if err := logger.AttachAuditFileSink(dir, eff.Config.Storage.AuditMaxFileSize.Int64()); err != nil {
			return nil, fmt.Errorf("attach audit sink: %w", err)
		}
	}

	kv, err := store.Open(eff.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	cat, err := catalog.Load(eff.Config.Storage.CatalogPath)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	eng := engine.New(kv, cat)
	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		kv:        kv,
		cat:       cat,
		eng:       eng,
		agg:       progress.New(eng, cat),
		lb:        leaderboard.New(kv),
	}
	return a, nil
}

// Run starts the sweeper (if enabled) and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopSweeper, err := sweeper.Start(ctx, a.eff.Config.Sweeper, a.kv)
	if err != nil {
		return err
	}
	defer stopSweeper()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdownHTTP()
		return a.kv.Close()
	case err := <-errCh:
		_ = a.kv.Close()
		return err
	}
}

func (a *App) shutdownHTTP() {
	if a.srv == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(sctx); err != nil {
		logger.Warn("http_shutdown_error", "error", err)
	}
}

// validateConfig performs fail-fast sanity checks on the merged config.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("no configuration resolved")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("store path required (use --db or THREADOFCLUES_DB_PATH)")
	}
	c := eff.Config
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("tls requires both cert_file and key_file")
	}
	if c.Security.RateLimit.RPS < 0 || c.Security.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must be non-negative")
	}
	if !c.Security.APIKeys.AllowUnauth &&
		len(c.Security.APIKeys.Backend) == 0 &&
		len(c.Security.APIKeys.Frontend) == 0 &&
		len(c.Security.APIKeys.Admin) == 0 {
		return fmt.Errorf("no API keys configured and anonymous play disabled; set security.api_keys or allow_unauth")
	}
	return nil
}
