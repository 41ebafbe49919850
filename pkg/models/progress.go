package models

// ClueStatus is the per-clue completion view for one user: whether they have
// solved it and whether they were the globally-first solver.
type ClueStatus struct {
	Done  bool `json:"done"`
	First bool `json:"first"`
}

// LocationProgress is the two-tier completion view for one location.
type LocationProgress struct {
	Fragment      bool `json:"fragment"`
	Location      bool `json:"location"`
	FragmentFirst bool `json:"fragmentFirst,omitempty"`
	LocationFirst bool `json:"locationFirst,omitempty"`
}

// MysteryProgress is the full per-mystery view: one entry per location keyed
// by location name, the mystery-wide main clue status, and whether every
// location clue has been solved by this user.
type MysteryProgress struct {
	Locations map[string]LocationProgress `json:"locations"`
	Main      ClueStatus                  `json:"main"`
	Completed bool                        `json:"completed"`
}
