package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/auth"
	"github.com/VulcanWM/threadofclues/pkg/leaderboard"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

const (
	defaultTopN = 10
	maxTopN     = 100
)

// RegisterLeaderboard registers the ranked XP views.
func RegisterLeaderboard(r *mux.Router, lb *leaderboard.Service) {
	h := &leaderboardHandlers{lb: lb}
	r.HandleFunc("/leaderboard", h.top).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard/rank", h.rank).Methods(http.MethodGet)
}

type leaderboardHandlers struct {
	lb *leaderboard.Service
}

// top handles GET /v1/leaderboard?n=10.
func (h *leaderboardHandlers) top(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			http.Error(w, `{"error":"n must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		n = v
	}
	if n > maxTopN {
		n = maxTopN
	}
	out, err := h.lb.Top(n)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// rank handles GET /v1/leaderboard/rank?username=u. The caller's own
// identity is used when the query parameter is absent.
func (h *leaderboardHandlers) rank(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		username = auth.Username(r)
	}
	out, err := h.lb.Rank(username)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}
