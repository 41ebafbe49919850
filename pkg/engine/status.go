package engine

import (
	"errors"
	"fmt"

	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

// clueStatus reads the per-user view of one clue: solved or not, and whether
// this user holds the first-solver marker.
func (e *Engine) clueStatus(username, doneKey, firstKey string) (models.ClueStatus, error) {
	var st models.ClueStatus

	_, err := e.kv.HGet(doneKey, username)
	switch {
	case err == nil:
		st.Done = true
	case errors.Is(err, store.ErrNotFound):
	default:
		return st, fmt.Errorf("read completion marker %s: %w", doneKey, err)
	}

	first, err := e.kv.Get(firstKey)
	switch {
	case err == nil:
		st.First = first == username
	case errors.Is(err, store.ErrNotFound):
	default:
		return st, fmt.Errorf("read first marker %s: %w", firstKey, err)
	}
	return st, nil
}

// FragmentStatus returns the user's fragment-clue status at a location and
// their fragment group (assigned if this is their first contact).
func (e *Engine) FragmentStatus(username, mysteryID, location string) (models.ClueStatus, int, error) {
	group, err := e.AssignGroup(username)
	if err != nil {
		return models.ClueStatus{}, 0, err
	}
	st, err := e.clueStatus(username,
		fragmentDoneKey(mysteryID, location, group),
		fragmentFirstKey(mysteryID, location, group))
	return st, group, err
}

// LocationStatus returns the user's location-clue status at a location.
func (e *Engine) LocationStatus(username, mysteryID, location string) (models.ClueStatus, error) {
	return e.clueStatus(username,
		locationDoneKey(mysteryID, location),
		locationFirstKey(mysteryID, location))
}

// MainStatus returns the user's main-clue status for a mystery.
func (e *Engine) MainStatus(username, mysteryID string) (models.ClueStatus, error) {
	return e.clueStatus(username, mainDoneKey(mysteryID), mainFirstKey(mysteryID))
}
