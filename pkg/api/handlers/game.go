package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/auth"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

// RegisterGame registers the session bootstrap and clue submission routes.
func RegisterGame(r *mux.Router, eng *engine.Engine) {
	h := &gameHandlers{eng: eng}
	r.HandleFunc("/init", h.init).Methods(http.MethodGet)
	r.HandleFunc("/mysteries/{id}/locations/{name}/fragment", h.submitFragment).Methods(http.MethodPost)
	r.HandleFunc("/mysteries/{id}/locations/{name}/location", h.submitLocation).Methods(http.MethodPost)
	r.HandleFunc("/mysteries/{id}/main", h.submitMain).Methods(http.MethodPost)
}

type gameHandlers struct {
	eng *engine.Engine
}

// init handles GET /v1/init to bootstrap a client session.
func (h *gameHandlers) init(w http.ResponseWriter, r *http.Request) {
	username := auth.Username(r)
	resp, err := h.eng.Bootstrap(username)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, resp)
}

// submitFragment handles POST /v1/mysteries/{id}/locations/{name}/fragment.
func (h *gameHandlers) submitFragment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := auth.Username(r)

	var sub models.FragmentSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if len(sub.ObjectIDs) == 0 || sub.Answer == "" {
		http.Error(w, `{"error":"objectIds and answer required"}`, http.StatusBadRequest)
		return
	}

	res, err := h.eng.SubmitFragment(username, vars["id"], vars["name"], sub)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

// submitLocation handles POST /v1/mysteries/{id}/locations/{name}/location.
func (h *gameHandlers) submitLocation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := auth.Username(r)

	sub, ok := decodeAnswer(w, r)
	if !ok {
		return
	}
	res, err := h.eng.SubmitLocation(username, vars["id"], vars["name"], sub)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

// submitMain handles POST /v1/mysteries/{id}/main.
func (h *gameHandlers) submitMain(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	username := auth.Username(r)

	sub, ok := decodeAnswer(w, r)
	if !ok {
		return
	}
	res, err := h.eng.SubmitMain(username, vars["id"], sub)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, res)
}

func decodeAnswer(w http.ResponseWriter, r *http.Request) (models.AnswerSubmission, bool) {
	var sub models.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return sub, false
	}
	if sub.Answer == "" {
		http.Error(w, `{"error":"answer required"}`, http.StatusBadRequest)
		return sub, false
	}
	return sub, true
}

// writeEngineError maps engine failures onto the response taxonomy: unknown
// catalog entries are 404, an active cooldown is 429, anything else is an
// internal store fault surfaced generically.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownMystery):
		utils.JSONError(w, http.StatusNotFound, "unknown mystery")
	case errors.Is(err, engine.ErrUnknownLocation):
		utils.JSONError(w, http.StatusNotFound, "unknown location")
	case errors.Is(err, engine.ErrRateLimited):
		utils.JSONError(w, http.StatusTooManyRequests, "cooldown active, try again shortly")
	default:
		logger.Error("request_failed", "path", r.URL.Path, "error", err.Error())
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
	}
}
