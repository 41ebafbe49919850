package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/VulcanWM/threadofclues/pkg/api"
	"github.com/VulcanWM/threadofclues/pkg/auth"
	"github.com/VulcanWM/threadofclues/pkg/banner"
	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/telemetry"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

const httpShutdownTimeout = 10 * time.Second

func (a *App) printBanner() {
	banner.PrintWithEff(a.eff, a.version)
}

// setupHTTPHandlers builds the full route tree: operational endpoints,
// docs, metrics, and the /v1 game API.
func (a *App) setupHTTPHandlers(secCfg auth.SecConfig) http.Handler {
	root := mux.NewRouter()

	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.JSONWrite(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"version":    a.version,
			"commit":     a.commit,
			"build_date": a.buildDate,
		})
	}).Methods(http.MethodGet)

	root.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !a.kv.Ready() {
			utils.JSONWrite(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		utils.JSONWrite(w, http.StatusOK, map[string]string{
			"status":  "ready",
			"version": a.version,
		})
	}).Methods(http.MethodGet)

	root.PathPrefix("/docs/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))
	root.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs"))).Methods(http.MethodGet)
	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	apiRouter := api.NewRouter(api.Deps{
		Engine:      a.eng,
		Progress:    a.agg,
		Leaderboard: a.lb,
		Catalog:     a.cat,
	})
	root.PathPrefix("/v1").Handler(auth.RequireSignedUser(secCfg)(apiRouter))

	return root
}

// buildSecConfig converts the file/env security config into the middleware's
// runtime shape, turning the key lists into lookup sets.
func buildSecConfig(cfg *config.Config) auth.SecConfig {
	sec := cfg.Security
	return auth.SecConfig{
		AllowedOrigins: sec.CORS.AllowedOrigins,
		RPS:            sec.RateLimit.RPS,
		Burst:          sec.RateLimit.Burst,
		IPWhitelist:    sec.IPWhitelist,
		BackendKeys:    config.DeriveBackendKeys(cfg),
		FrontendKeys:   config.DeriveFrontendKeys(cfg),
		AdminKeys:      config.DeriveAdminKeys(cfg),
		AllowUnauth:    sec.APIKeys.AllowUnauth,
	}
}

// startHTTP assembles the middleware chain and launches the listener in a
// goroutine; fatal serve errors arrive on the returned channel.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	secCfg := buildSecConfig(a.eff.Config)

	handler := telemetry.Middleware(
		auth.AuthenticateRequestMiddleware(secCfg)(
			a.setupHTTPHandlers(secCfg),
		),
	)

	a.srv = &http.Server{
		Addr:              a.eff.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		tls := a.eff.Config.Server.TLS
		var err error
		if tls.CertFile != "" && tls.KeyFile != "" {
			logger.Info("https_listen", "addr", a.eff.Addr)
			err = a.srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			logger.Info("http_listen", "addr", a.eff.Addr)
			err = a.srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
