// Package api builds the public game router: session bootstrap, clue
// submissions, catalog browsing, progress views and the leaderboard.
package api

import (
	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/api/handlers"
	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/leaderboard"
	"github.com/VulcanWM/threadofclues/pkg/progress"
)

// Deps are the services the API serves. All are required.
type Deps struct {
	Engine      *engine.Engine
	Progress    *progress.Aggregator
	Leaderboard *leaderboard.Service
	Catalog     *catalog.Catalog
}

// NewRouter registers every /v1 route on a fresh gorilla router.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterGame(v1, d.Engine)
	handlers.RegisterMysteries(v1, d.Catalog, d.Engine)
	handlers.RegisterProgress(v1, d.Progress)
	handlers.RegisterLeaderboard(v1, d.Leaderboard)
	return r
}
