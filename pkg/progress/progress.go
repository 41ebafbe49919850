// Package progress computes per-user completion views over the engine's
// stored markers. Read-only; never mutates the store beyond the lazy
// fragment-group assignment the status reads share with the submit path.
package progress

import (
	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/models"
)

// Aggregator builds progress views from per-clue statuses.
type Aggregator struct {
	eng *engine.Engine
	cat *catalog.Catalog
}

// New returns an aggregator over the given engine and catalog.
func New(eng *engine.Engine, cat *catalog.Catalog) *Aggregator {
	return &Aggregator{eng: eng, cat: cat}
}

// Mystery returns the user's progress for one mystery: per-location fragment
// and location flags, the main-clue status, and whether every location clue
// is solved.
func (a *Aggregator) Mystery(username, mysteryID string) (models.MysteryProgress, error) {
	m, ok := a.cat.Get(mysteryID)
	if !ok {
		return models.MysteryProgress{}, engine.ErrUnknownMystery
	}
	return a.mystery(username, m)
}

// All returns the user's progress for every mystery in the catalog, keyed by
// mystery id.
func (a *Aggregator) All(username string) (map[string]models.MysteryProgress, error) {
	out := make(map[string]models.MysteryProgress)
	for _, m := range a.cat.All() {
		p, err := a.mystery(username, m)
		if err != nil {
			return nil, err
		}
		out[m.ID] = p
	}
	return out, nil
}

func (a *Aggregator) mystery(username string, m *models.Mystery) (models.MysteryProgress, error) {
	p := models.MysteryProgress{
		Locations: make(map[string]models.LocationProgress, len(m.Locations)),
		Completed: true,
	}
	for i := range m.Locations {
		name := m.Locations[i].Name

		frag, _, err := a.eng.FragmentStatus(username, m.ID, name)
		if err != nil {
			return models.MysteryProgress{}, err
		}
		loc, err := a.eng.LocationStatus(username, m.ID, name)
		if err != nil {
			return models.MysteryProgress{}, err
		}

		p.Locations[name] = models.LocationProgress{
			Fragment:      frag.Done,
			Location:      loc.Done,
			FragmentFirst: frag.First,
			LocationFirst: loc.First,
		}
		if !loc.Done {
			p.Completed = false
		}
	}

	main, err := a.eng.MainStatus(username, m.ID)
	if err != nil {
		return models.MysteryProgress{}, err
	}
	p.Main = main
	return p, nil
}
