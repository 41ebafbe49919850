package models

// Mystery is a static catalog entry. Catalog data is loaded once at startup
// and never mutated at runtime.
type Mystery struct {
	ID         string     `yaml:"-" json:"id"`
	Name       string     `yaml:"mystery_name" json:"mysteryName"`
	MainAnswer string     `yaml:"main_answer" json:"-"`
	Title      string     `yaml:"title" json:"title"`
	Desc       string     `yaml:"desc" json:"desc"`
	Locations  []Location `yaml:"locations" json:"locations"`
}

// Location is one investigation site within a mystery. It carries the shared
// location code plus one fragment code per fragment group.
type Location struct {
	Name          string   `yaml:"name" json:"name"`
	Emoji         string   `yaml:"emoji" json:"emoji"`
	LocationCode  string   `yaml:"location_code" json:"-"`
	FragmentCodes []string `yaml:"fragment_codes" json:"-"`
	Objects       []Object `yaml:"objects" json:"objects"`
}

// Object is an inspectable item at a location. Real objects carry the clue
// messages for the fragment puzzle; the rest are decoys.
type Object struct {
	ID       int      `yaml:"id" json:"id"`
	Real     bool     `yaml:"real" json:"-"`
	Name     string   `yaml:"name" json:"name"`
	Emoji    string   `yaml:"emoji" json:"emoji"`
	Messages []string `yaml:"messages" json:"-"`
}

// Location returns the location with the given name, or false when the
// mystery has no such location.
func (m *Mystery) Location(name string) (*Location, bool) {
	for i := range m.Locations {
		if m.Locations[i].Name == name {
			return &m.Locations[i], true
		}
	}
	return nil, false
}

// RealObjectIDs returns the ids of the clue-bearing objects that carry a
// message for the given fragment group, in catalog order.
func (l *Location) RealObjectIDs(group int) []int {
	var ids []int
	for _, o := range l.Objects {
		if !o.Real {
			continue
		}
		if group < 0 || group >= len(o.Messages) || o.Messages[group] == "" {
			continue
		}
		ids = append(ids, o.ID)
	}
	return ids
}

// Message returns the object's message for the given fragment group, or the
// empty string when the group is out of range.
func (o *Object) Message(group int) string {
	if group < 0 || group >= len(o.Messages) {
		return ""
	}
	return o.Messages[group]
}
