package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/VulcanWM/threadofclues/pkg/auth"
	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/utils"
)

// RegisterMysteries registers the catalog browsing routes.
func RegisterMysteries(r *mux.Router, cat *catalog.Catalog, eng *engine.Engine) {
	h := &mysteryHandlers{cat: cat, eng: eng}
	r.HandleFunc("/mysteries", h.list).Methods(http.MethodGet)
	r.HandleFunc("/mysteries/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/mysteries/{id}/locations/{name}/objects", h.objects).Methods(http.MethodGet)
}

type mysteryHandlers struct {
	cat *catalog.Catalog
	eng *engine.Engine
}

// mysterySummary is the catalog listing view. Answer codes never leave the
// server; the model json tags hide them and this view carries none.
type mysterySummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Desc      string   `json:"desc"`
	Locations []string `json:"locations"`
}

// objectView is one inspectable object with the message for the caller's
// fragment group. Decoys are indistinguishable from real objects here.
type objectView struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	Message string `json:"message"`
}

// list handles GET /v1/mysteries.
func (h *mysteryHandlers) list(w http.ResponseWriter, r *http.Request) {
	all := h.cat.All()
	out := make([]mysterySummary, 0, len(all))
	for _, m := range all {
		out = append(out, summarize(m))
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// get handles GET /v1/mysteries/{id}.
func (h *mysteryHandlers) get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.cat.Get(mux.Vars(r)["id"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "unknown mystery")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, summarize(m))
}

// objects handles GET /v1/mysteries/{id}/locations/{name}/objects: the
// inspectable objects at a location, each with the clue message for the
// caller's fragment group.
func (h *mysteryHandlers) objects(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, ok := h.cat.Get(vars["id"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "unknown mystery")
		return
	}
	loc, ok := m.Location(vars["name"])
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "unknown location")
		return
	}

	group, err := h.eng.AssignGroup(auth.Username(r))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	out := make([]objectView, 0, len(loc.Objects))
	for i := range loc.Objects {
		o := &loc.Objects[i]
		out = append(out, objectView{
			ID:      o.ID,
			Name:    o.Name,
			Emoji:   o.Emoji,
			Message: o.Message(group),
		})
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

func summarize(m *models.Mystery) mysterySummary {
	s := mysterySummary{ID: m.ID, Title: m.Title, Desc: m.Desc}
	for i := range m.Locations {
		s.Locations = append(s.Locations, m.Locations[i].Name)
	}
	return s
}
