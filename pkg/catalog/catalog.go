// Package catalog holds the static mystery definitions: every mystery, its
// locations, the answer codes and the inspectable objects. The catalog is
// loaded once at startup (from an embedded default or a configured YAML file)
// and is read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/VulcanWM/threadofclues/pkg/clues"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/models"
)

// FragmentGroups is the number of clue variants. Every location carries one
// fragment code per group and every object one message per group.
const FragmentGroups = 3

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Mysteries map[string]models.Mystery `yaml:"mysteries"`
}

// Catalog is the loaded, validated mystery set.
type Catalog struct {
	mysteries map[string]*models.Mystery
	order     []string
}

// Load reads the catalog from path, or the embedded default when path is
// empty, and validates its shape.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	src := "embedded"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = b
		src = path
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cf.Mysteries) == 0 {
		return nil, fmt.Errorf("catalog has no mysteries")
	}

	c := &Catalog{mysteries: make(map[string]*models.Mystery, len(cf.Mysteries))}
	for id := range cf.Mysteries {
		c.order = append(c.order, id)
	}
	sort.Strings(c.order)
	for _, id := range c.order {
		m := cf.Mysteries[id]
		m.ID = id
		if err := validateMystery(&m); err != nil {
			return nil, fmt.Errorf("mystery %q: %w", id, err)
		}
		c.mysteries[id] = &m
	}

	logger.Info("catalog_loaded", "source", src, "mysteries", len(c.order))
	return c, nil
}

// Get returns the mystery with the given id.
func (c *Catalog) Get(id string) (*models.Mystery, bool) {
	m, ok := c.mysteries[id]
	return m, ok
}

// All returns every mystery in stable (id-sorted) order.
func (c *Catalog) All() []*models.Mystery {
	out := make([]*models.Mystery, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.mysteries[id])
	}
	return out
}

func validateMystery(m *models.Mystery) error {
	// Answer codes are stored in the normalized form submissions are
	// compared in, so a lowercase code in a catalog file still matches.
	m.MainAnswer = clues.NormalizeAnswer(m.MainAnswer)
	if m.MainAnswer == "" {
		return fmt.Errorf("missing main_answer")
	}
	if len(m.Locations) == 0 {
		return fmt.Errorf("no locations")
	}
	seenLoc := map[string]bool{}
	for li := range m.Locations {
		l := &m.Locations[li]
		if l.Name == "" {
			return fmt.Errorf("location %d has no name", li)
		}
		if seenLoc[l.Name] {
			return fmt.Errorf("duplicate location %q", l.Name)
		}
		seenLoc[l.Name] = true
		l.LocationCode = clues.NormalizeAnswer(l.LocationCode)
		if l.LocationCode == "" {
			return fmt.Errorf("location %q has no location_code", l.Name)
		}
		if len(l.FragmentCodes) != FragmentGroups {
			return fmt.Errorf("location %q has %d fragment codes, want %d", l.Name, len(l.FragmentCodes), FragmentGroups)
		}
		for fi, code := range l.FragmentCodes {
			code = clues.NormalizeAnswer(code)
			if code == "" {
				return fmt.Errorf("location %q has empty fragment code %d", l.Name, fi)
			}
			l.FragmentCodes[fi] = code
		}
		seenObj := map[int]bool{}
		real := 0
		for _, o := range l.Objects {
			if seenObj[o.ID] {
				return fmt.Errorf("location %q has duplicate object id %d", l.Name, o.ID)
			}
			seenObj[o.ID] = true
			if len(o.Messages) != FragmentGroups {
				return fmt.Errorf("object %d in %q has %d messages, want %d", o.ID, l.Name, len(o.Messages), FragmentGroups)
			}
			if o.Real {
				real++
			}
		}
		if real == 0 {
			return fmt.Errorf("location %q has no real objects", l.Name)
		}
	}
	return nil
}
