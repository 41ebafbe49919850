// Package engine implements the progress and reward core: fragment-group
// assignment, submission cooldowns, answer validation dispatch, completion
// markers with the first-solver bonus, and the XP ledger writes. All state
// lives in the injected key-value store; the engine itself is stateless and
// safe for concurrent use.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/clues"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/store"
	"github.com/VulcanWM/threadofclues/pkg/telemetry"
)

// XP awards per validated completion. The first correct solver of any clue
// gets the bonus rate, everyone after the normal rate.
const (
	NormalXP int64 = 50
	FirstXP  int64 = 250
)

// CooldownSeconds is the per-(user, mystery, location, kind) window during
// which repeat submission attempts are rejected.
const CooldownSeconds = 60

var (
	// ErrUnknownMystery is returned for a mystery id absent from the catalog.
	ErrUnknownMystery = errors.New("engine: unknown mystery")
	// ErrUnknownLocation is returned for a location name the mystery lacks.
	ErrUnknownLocation = errors.New("engine: unknown location")
	// ErrRateLimited is returned while a submission cooldown is active.
	ErrRateLimited = errors.New("engine: rate limited")
)

// Engine wires the catalog and the shared store into the submission flow.
type Engine struct {
	kv  store.KV
	cat *catalog.Catalog

	// groupFn draws a fragment group for a user's first contact. Replaced
	// in tests for deterministic assignment.
	groupFn func() int
}

// New returns an engine over the given store and catalog.
func New(kv store.KV, cat *catalog.Catalog) *Engine {
	return &Engine{
		kv:      kv,
		cat:     cat,
		groupFn: func() int { return rand.IntN(catalog.FragmentGroups) },
	}
}

// Bootstrap resolves the session view for a user: cumulative XP and their
// fragment group, assigning the group on first contact.
func (e *Engine) Bootstrap(username string) (models.InitResponse, error) {
	group, err := e.AssignGroup(username)
	if err != nil {
		return models.InitResponse{}, err
	}
	xp, err := e.kv.ZScore(LeaderboardKey, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.InitResponse{}, fmt.Errorf("read xp for %s: %w", username, err)
	}
	return models.InitResponse{
		Username:      username,
		XP:            int64(xp),
		FragmentGroup: group,
	}, nil
}

// AssignGroup returns the user's fragment group, drawing and persisting one
// on first contact. The persist is set-if-absent, so concurrent first calls
// for the same user converge on a single group.
func (e *Engine) AssignGroup(username string) (int, error) {
	key := assignmentKey(username)
	if v, err := e.kv.Get(key); err == nil {
		group, perr := strconv.Atoi(v)
		if perr != nil {
			return 0, fmt.Errorf("corrupt fragment group %q for %s: %w", v, username, perr)
		}
		return group, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, fmt.Errorf("read fragment group for %s: %w", username, err)
	}

	group := e.groupFn()
	ok, err := e.kv.SetNX(key, strconv.Itoa(group))
	if err != nil {
		return 0, fmt.Errorf("assign fragment group for %s: %w", username, err)
	}
	if !ok {
		// Lost the race to a concurrent first call; use the winner's draw.
		v, err := e.kv.Get(key)
		if err != nil {
			return 0, fmt.Errorf("reread fragment group for %s: %w", username, err)
		}
		return strconv.Atoi(v)
	}
	logger.Info("fragment_group_assigned", "user", username, "group", group)
	return group, nil
}

// tryAcquire claims the cooldown token for one submission attempt. A held
// token means a recent attempt is still cooling down.
func (e *Engine) tryAcquire(username, mysteryID, location, kind string) (bool, error) {
	key := rateLimitKey(username, mysteryID, location, kind)
	ok, err := e.kv.SetNXTTL(key, "1", CooldownSeconds)
	if err != nil {
		return false, fmt.Errorf("acquire cooldown token: %w", err)
	}
	return ok, nil
}

// recordCompletion marks a validated clue solved for the user and pays out
// XP. Resubmissions of an already-solved clue are a no-op. The first-solver
// claim is a single atomic set-if-absent on the first marker.
func (e *Engine) recordCompletion(username, doneKey, firstKey string) (models.SubmitResult, error) {
	_, err := e.kv.HGet(doneKey, username)
	if err == nil {
		return models.SubmitResult{
			Correct:     true,
			AlreadyDone: true,
			Message:     "You already solved this clue.",
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.SubmitResult{}, fmt.Errorf("read completion marker %s: %w", doneKey, err)
	}

	gained := NormalXP
	first, err := e.kv.SetNX(firstKey, username)
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("claim first marker %s: %w", firstKey, err)
	}
	if first {
		gained = FirstXP
	}

	if err := e.kv.HSet(doneKey, map[string]string{username: "1"}); err != nil {
		return models.SubmitResult{}, fmt.Errorf("write completion marker %s: %w", doneKey, err)
	}
	total, err := e.kv.ZIncrBy(LeaderboardKey, username, float64(gained))
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("award xp to %s: %w", username, err)
	}

	telemetry.AddXPAwarded(gained)
	logger.AuditEvent("clue_solved",
		"user", username,
		"key", doneKey,
		"first", first,
		"xp_gained", gained,
		"xp_total", int64(total),
	)

	msg := fmt.Sprintf("Correct! You earned %d XP.", gained)
	if first {
		msg = fmt.Sprintf("Correct! First solver bonus: %d XP.", gained)
	}
	return models.SubmitResult{
		Correct:  true,
		XPGained: gained,
		First:    first,
		Message:  msg,
	}, nil
}

// SubmitFragment handles a fragment-clue attempt: cooldown gate, then the
// object-set and code check for the user's fragment group, then the award.
func (e *Engine) SubmitFragment(username, mysteryID, location string, sub models.FragmentSubmission) (models.SubmitResult, error) {
	m, ok := e.cat.Get(mysteryID)
	if !ok {
		return models.SubmitResult{}, ErrUnknownMystery
	}
	loc, ok := m.Location(location)
	if !ok {
		return models.SubmitResult{}, ErrUnknownLocation
	}

	allowed, err := e.tryAcquire(username, mysteryID, location, KindFragment)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !allowed {
		telemetry.ObserveSubmission(KindFragment, telemetry.OutcomeRateLimited)
		return models.SubmitResult{}, ErrRateLimited
	}

	group, err := e.AssignGroup(username)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !clues.ValidFragment(loc, group, sub.ObjectIDs, sub.Answer) {
		telemetry.ObserveSubmission(KindFragment, telemetry.OutcomeIncorrect)
		return models.SubmitResult{Message: "That's not quite right."}, nil
	}

	res, err := e.recordCompletion(username,
		fragmentDoneKey(mysteryID, location, group),
		fragmentFirstKey(mysteryID, location, group))
	if err != nil {
		return models.SubmitResult{}, err
	}
	telemetry.ObserveSubmission(KindFragment, submitOutcome(res))
	return res, nil
}

// SubmitLocation handles a location-clue attempt. The fragment clue is not a
// prerequisite here; ordering between the two tiers is a client concern.
func (e *Engine) SubmitLocation(username, mysteryID, location string, sub models.AnswerSubmission) (models.SubmitResult, error) {
	m, ok := e.cat.Get(mysteryID)
	if !ok {
		return models.SubmitResult{}, ErrUnknownMystery
	}
	loc, ok := m.Location(location)
	if !ok {
		return models.SubmitResult{}, ErrUnknownLocation
	}

	allowed, err := e.tryAcquire(username, mysteryID, location, KindLocation)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !allowed {
		telemetry.ObserveSubmission(KindLocation, telemetry.OutcomeRateLimited)
		return models.SubmitResult{}, ErrRateLimited
	}

	if !clues.ValidLocation(loc, sub.Answer) {
		telemetry.ObserveSubmission(KindLocation, telemetry.OutcomeIncorrect)
		return models.SubmitResult{Message: "That's not quite right."}, nil
	}

	res, err := e.recordCompletion(username,
		locationDoneKey(mysteryID, location),
		locationFirstKey(mysteryID, location))
	if err != nil {
		return models.SubmitResult{}, err
	}
	telemetry.ObserveSubmission(KindLocation, submitOutcome(res))
	return res, nil
}

// SubmitMain handles the mystery-wide final answer. Every location clue must
// already be solved by this user; an incomplete prerequisite is a distinct
// negative result, not merged with a wrong answer.
func (e *Engine) SubmitMain(username, mysteryID string, sub models.AnswerSubmission) (models.SubmitResult, error) {
	m, ok := e.cat.Get(mysteryID)
	if !ok {
		return models.SubmitResult{}, ErrUnknownMystery
	}

	allowed, err := e.tryAcquire(username, mysteryID, "-", KindMain)
	if err != nil {
		return models.SubmitResult{}, err
	}
	if !allowed {
		telemetry.ObserveSubmission(KindMain, telemetry.OutcomeRateLimited)
		return models.SubmitResult{}, ErrRateLimited
	}

	for i := range m.Locations {
		name := m.Locations[i].Name
		_, err := e.kv.HGet(locationDoneKey(mysteryID, name), username)
		if errors.Is(err, store.ErrNotFound) {
			telemetry.ObserveSubmission(KindMain, telemetry.OutcomePrereq)
			return models.SubmitResult{
				Prereq:  "locations",
				Message: "Solve every location clue first.",
			}, nil
		}
		if err != nil {
			return models.SubmitResult{}, fmt.Errorf("read location marker for %s: %w", name, err)
		}
	}

	if !clues.ValidMain(m, sub.Answer) {
		telemetry.ObserveSubmission(KindMain, telemetry.OutcomeIncorrect)
		return models.SubmitResult{Message: "That's not quite right."}, nil
	}

	res, err := e.recordCompletion(username, mainDoneKey(mysteryID), mainFirstKey(mysteryID))
	if err != nil {
		return models.SubmitResult{}, err
	}
	telemetry.ObserveSubmission(KindMain, submitOutcome(res))
	return res, nil
}

func submitOutcome(res models.SubmitResult) string {
	if res.AlreadyDone {
		return telemetry.OutcomeDuplicate
	}
	return telemetry.OutcomeCorrect
}
