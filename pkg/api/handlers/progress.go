package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/auth"
	"github.com/VulcanWM/threadofclues/pkg/progress"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

// RegisterProgress registers the per-user progress views.
func RegisterProgress(r *mux.Router, agg *progress.Aggregator) {
	h := &progressHandlers{agg: agg}
	r.HandleFunc("/progress", h.all).Methods(http.MethodGet)
	r.HandleFunc("/mysteries/{id}/progress", h.mystery).Methods(http.MethodGet)
}

type progressHandlers struct {
	agg *progress.Aggregator
}

// all handles GET /v1/progress.
func (h *progressHandlers) all(w http.ResponseWriter, r *http.Request) {
	out, err := h.agg.All(auth.Username(r))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// mystery handles GET /v1/mysteries/{id}/progress.
func (h *progressHandlers) mystery(w http.ResponseWriter, r *http.Request) {
	out, err := h.agg.Mystery(auth.Username(r), mux.Vars(r)["id"])
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}
