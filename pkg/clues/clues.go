// Package clues validates player answers against the mystery catalog.
//
// Answers are compared case-insensitively with surrounding whitespace
// ignored, so "gem " and "GEM" are the same submission. Fragment checks
// additionally require the exact set of real objects for the player's
// fragment group.
package clues

import (
	"strings"

	"github.com/VulcanWM/threadofclues/pkg/models"
)

// NormalizeAnswer trims whitespace and upper-cases an answer so that
// comparisons against catalog codes are case and padding insensitive.
func NormalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}

// ValidFragment reports whether the submitted object ids and answer solve
// the fragment puzzle at loc for the given fragment group. The object ids
// must match the real objects carrying a message for that group exactly,
// duplicates in the submission collapse to one.
func ValidFragment(loc *models.Location, group int, objectIDs []int, answer string) bool {
	if group < 0 || group >= len(loc.FragmentCodes) {
		return false
	}
	if NormalizeAnswer(answer) != loc.FragmentCodes[group] {
		return false
	}
	want := loc.RealObjectIDs(group)
	got := make(map[int]struct{}, len(objectIDs))
	for _, id := range objectIDs {
		got[id] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for _, id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

// ValidLocation reports whether answer matches the location's code.
func ValidLocation(loc *models.Location, answer string) bool {
	return NormalizeAnswer(answer) == loc.LocationCode
}

// ValidMain reports whether answer matches the mystery's main answer.
func ValidMain(m *models.Mystery, answer string) bool {
	return NormalizeAnswer(answer) == m.MainAnswer
}
