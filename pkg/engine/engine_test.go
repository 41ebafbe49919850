package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

type testRig struct {
	eng *Engine
	mem *store.Memory
	now time.Time
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	r := &testRig{mem: store.NewMemory(), now: time.Unix(10000, 0)}
	r.mem.Now = func() time.Time { return r.now }
	r.eng = New(r.mem, cat)
	r.eng.groupFn = func() int { return 0 }
	return r
}

// advance moves the test clock far enough for any cooldown to lapse.
func (r *testRig) advance() {
	r.now = r.now.Add((CooldownSeconds + 1) * time.Second)
}

func (r *testRig) xp(t *testing.T, user string) int64 {
	t.Helper()
	s, err := r.mem.ZScore(LeaderboardKey, user)
	if errors.Is(err, store.ErrNotFound) {
		return 0
	}
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	return int64(s)
}

func TestAssignGroupStable(t *testing.T) {
	r := newTestRig(t)
	r.eng.groupFn = func() int { return 2 }

	g, err := r.eng.AssignGroup("alice")
	if err != nil || g != 2 {
		t.Fatalf("first assign: %d %v", g, err)
	}
	// later draws must not change the stored group
	r.eng.groupFn = func() int { return 0 }
	g, err = r.eng.AssignGroup("alice")
	if err != nil || g != 2 {
		t.Fatalf("assign not stable: %d %v", g, err)
	}
}

func TestBootstrap(t *testing.T) {
	r := newTestRig(t)
	out, err := r.eng.Bootstrap("alice")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if out.Username != "alice" || out.XP != 0 || out.FragmentGroup != 0 {
		t.Fatalf("bootstrap: %+v", out)
	}

	if _, err := r.mem.ZIncrBy(LeaderboardKey, "alice", 300); err != nil {
		t.Fatalf("seed xp: %v", err)
	}
	out, err = r.eng.Bootstrap("alice")
	if err != nil || out.XP != 300 {
		t.Fatalf("bootstrap with xp: %+v %v", out, err)
	}
}

func TestSubmitFragmentFirstAndFollowers(t *testing.T) {
	r := newTestRig(t)
	sub := models.FragmentSubmission{ObjectIDs: []int{1, 2, 3}, Answer: "GEM"}

	res, err := r.eng.SubmitFragment("alice", "london", "Museum", sub)
	if err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if !res.Correct || !res.First || res.XPGained != FirstXP {
		t.Fatalf("first solver result: %+v", res)
	}
	if got := r.xp(t, "alice"); got != FirstXP {
		t.Fatalf("alice xp: %d", got)
	}

	// same group, later solver gets the normal rate
	res, err = r.eng.SubmitFragment("bob", "london", "Museum", sub)
	if err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if !res.Correct || res.First || res.XPGained != NormalXP {
		t.Fatalf("follower result: %+v", res)
	}
	if got := r.xp(t, "bob"); got != NormalXP {
		t.Fatalf("bob xp: %d", got)
	}
}

func TestFirstBonusPerFragmentGroup(t *testing.T) {
	r := newTestRig(t)

	if _, err := r.eng.SubmitFragment("alice", "london", "Museum",
		models.FragmentSubmission{ObjectIDs: []int{1, 2, 3}, Answer: "GEM"}); err != nil {
		t.Fatalf("group 0 submit: %v", err)
	}

	// a different group races for its own first marker
	r.eng.groupFn = func() int { return 1 }
	res, err := r.eng.SubmitFragment("bob", "london", "Museum",
		models.FragmentSubmission{ObjectIDs: []int{1, 2, 3}, Answer: "RING"})
	if err != nil {
		t.Fatalf("group 1 submit: %v", err)
	}
	if !res.First || res.XPGained != FirstXP {
		t.Fatalf("group 1 first: %+v", res)
	}
}

func TestResubmitAfterSolveIsNoop(t *testing.T) {
	r := newTestRig(t)
	sub := models.FragmentSubmission{ObjectIDs: []int{1, 2, 3}, Answer: "GEM"}

	if _, err := r.eng.SubmitFragment("alice", "london", "Museum", sub); err != nil {
		t.Fatalf("solve: %v", err)
	}
	r.advance()

	res, err := r.eng.SubmitFragment("alice", "london", "Museum", sub)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !res.AlreadyDone || !res.Correct || res.XPGained != 0 {
		t.Fatalf("resubmit result: %+v", res)
	}
	if got := r.xp(t, "alice"); got != FirstXP {
		t.Fatalf("ledger changed on resubmit: %d", got)
	}
}

func TestIncorrectAnswer(t *testing.T) {
	r := newTestRig(t)
	res, err := r.eng.SubmitFragment("alice", "london", "Museum",
		models.FragmentSubmission{ObjectIDs: []int{1, 2, 4}, Answer: "GEM"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Correct || res.XPGained != 0 {
		t.Fatalf("wrong answer result: %+v", res)
	}
	if got := r.xp(t, "alice"); got != 0 {
		t.Fatalf("xp awarded for wrong answer: %d", got)
	}
}

func TestCooldown(t *testing.T) {
	r := newTestRig(t)
	wrong := models.FragmentSubmission{ObjectIDs: []int{4}, Answer: "NOPE"}

	if _, err := r.eng.SubmitFragment("alice", "london", "Museum", wrong); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	// an incorrect attempt still arms the cooldown
	if _, err := r.eng.SubmitFragment("alice", "london", "Museum", wrong); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// cooldowns are scoped per location and per kind
	if _, err := r.eng.SubmitFragment("alice", "london", "Bank", wrong); err != nil {
		t.Fatalf("other location blocked: %v", err)
	}
	if _, err := r.eng.SubmitLocation("alice", "london", "Museum",
		models.AnswerSubmission{Answer: "NOPE"}); err != nil {
		t.Fatalf("other kind blocked: %v", err)
	}
	// and per user
	if _, err := r.eng.SubmitFragment("bob", "london", "Museum", wrong); err != nil {
		t.Fatalf("other user blocked: %v", err)
	}

	r.advance()
	if _, err := r.eng.SubmitFragment("alice", "london", "Museum", wrong); err != nil {
		t.Fatalf("attempt after cooldown: %v", err)
	}
}

func TestSubmitLocation(t *testing.T) {
	r := newTestRig(t)
	res, err := r.eng.SubmitLocation("alice", "london", "Museum",
		models.AnswerSubmission{Answer: "bearing"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Correct || !res.First || res.XPGained != FirstXP {
		t.Fatalf("location result: %+v", res)
	}
}

func TestSubmitMainPrereq(t *testing.T) {
	r := newTestRig(t)
	m := models.AnswerSubmission{Answer: "ELON"}

	// no locations solved yet; a correct answer must still be gated
	res, err := r.eng.SubmitMain("alice", "london", m)
	if err != nil {
		t.Fatalf("main submit: %v", err)
	}
	if res.Correct || res.Prereq != "locations" {
		t.Fatalf("prereq result: %+v", res)
	}

	// solve every location clue
	for _, loc := range []struct{ name, code string }{
		{"Museum", "BEARING"}, {"Bank", "SHAFT"}, {"Underground", "PILLOW"},
		{"Docks", "CASE"}, {"Mansion", "NUT"},
	} {
		if _, err := r.eng.SubmitLocation("alice", "london", loc.name,
			models.AnswerSubmission{Answer: loc.code}); err != nil {
			t.Fatalf("solve %s: %v", loc.name, err)
		}
	}

	r.advance()
	res, err = r.eng.SubmitMain("alice", "london", m)
	if err != nil {
		t.Fatalf("main after prereq: %v", err)
	}
	if !res.Correct || !res.First || res.XPGained != FirstXP {
		t.Fatalf("main result: %+v", res)
	}

	// bob has solved nothing in this mystery
	res, err = r.eng.SubmitMain("bob", "london", m)
	if err != nil {
		t.Fatalf("bob main: %v", err)
	}
	if res.Prereq != "locations" {
		t.Fatalf("prereq is per user: %+v", res)
	}
}

func TestSubmitUnknownTargets(t *testing.T) {
	r := newTestRig(t)
	if _, err := r.eng.SubmitFragment("alice", "berlin", "Museum",
		models.FragmentSubmission{}); !errors.Is(err, ErrUnknownMystery) {
		t.Fatalf("expected ErrUnknownMystery, got %v", err)
	}
	if _, err := r.eng.SubmitFragment("alice", "london", "Garage",
		models.FragmentSubmission{}); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
	if _, err := r.eng.SubmitMain("alice", "berlin",
		models.AnswerSubmission{}); !errors.Is(err, ErrUnknownMystery) {
		t.Fatalf("expected ErrUnknownMystery, got %v", err)
	}
}

func TestStatusViews(t *testing.T) {
	r := newTestRig(t)

	st, group, err := r.eng.FragmentStatus("alice", "london", "Museum")
	if err != nil || st.Done || st.First || group != 0 {
		t.Fatalf("initial fragment status: %+v %d %v", st, group, err)
	}

	if _, err := r.eng.SubmitFragment("alice", "london", "Museum",
		models.FragmentSubmission{ObjectIDs: []int{1, 2, 3}, Answer: "GEM"}); err != nil {
		t.Fatalf("solve: %v", err)
	}

	st, _, err = r.eng.FragmentStatus("alice", "london", "Museum")
	if err != nil || !st.Done || !st.First {
		t.Fatalf("solved fragment status: %+v %v", st, err)
	}

	// bob shares group 0 but has not solved it, and cannot be first
	st, _, err = r.eng.FragmentStatus("bob", "london", "Museum")
	if err != nil || st.Done || st.First {
		t.Fatalf("bob fragment status: %+v %v", st, err)
	}

	mst, err := r.eng.MainStatus("alice", "london")
	if err != nil || mst.Done {
		t.Fatalf("main status: %+v %v", mst, err)
	}
}
