package progress

import (
	"testing"
	"time"

	"github.com/VulcanWM/threadofclues/pkg/catalog"
	"github.com/VulcanWM/threadofclues/pkg/engine"
	"github.com/VulcanWM/threadofclues/pkg/models"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *engine.Engine, *store.Memory, func()) {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	mem := store.NewMemory()
	now := time.Unix(20000, 0)
	mem.Now = func() time.Time { return now }
	eng := engine.New(mem, cat)
	advance := func() { now = now.Add((engine.CooldownSeconds + 1) * time.Second) }
	return New(eng, cat), eng, mem, advance
}

func TestMysteryProgressEmpty(t *testing.T) {
	agg, _, _, _ := newTestAggregator(t)

	p, err := agg.Mystery("alice", "london")
	if err != nil {
		t.Fatalf("mystery: %v", err)
	}
	if len(p.Locations) != 5 {
		t.Fatalf("locations: %d", len(p.Locations))
	}
	if p.Completed || p.Main.Done {
		t.Fatalf("fresh progress not empty: %+v", p)
	}
	for name, lp := range p.Locations {
		if lp.Fragment || lp.Location {
			t.Fatalf("location %s not empty: %+v", name, lp)
		}
	}

	if _, err := agg.Mystery("alice", "berlin"); err == nil {
		t.Fatalf("expected error for unknown mystery")
	}
}

func TestMysteryProgressTracksSolves(t *testing.T) {
	agg, eng, _, advance := newTestAggregator(t)

	if _, err := eng.SubmitLocation("alice", "london", "Museum",
		models.AnswerSubmission{Answer: "BEARING"}); err != nil {
		t.Fatalf("solve location: %v", err)
	}

	p, err := agg.Mystery("alice", "london")
	if err != nil {
		t.Fatalf("mystery: %v", err)
	}
	lp := p.Locations["Museum"]
	if !lp.Location || !lp.LocationFirst || lp.Fragment {
		t.Fatalf("museum progress: %+v", lp)
	}
	if p.Completed {
		t.Fatalf("completed with one of five locations")
	}

	for _, loc := range []struct{ name, code string }{
		{"Bank", "SHAFT"}, {"Underground", "PILLOW"}, {"Docks", "CASE"}, {"Mansion", "NUT"},
	} {
		if _, err := eng.SubmitLocation("alice", "london", loc.name,
			models.AnswerSubmission{Answer: loc.code}); err != nil {
			t.Fatalf("solve %s: %v", loc.name, err)
		}
	}

	p, err = agg.Mystery("alice", "london")
	if err != nil || !p.Completed {
		t.Fatalf("all locations solved, completed=%v err=%v", p.Completed, err)
	}
	if p.Main.Done {
		t.Fatalf("main marked done without a solve")
	}

	advance()
	if _, err := eng.SubmitMain("alice", "london",
		models.AnswerSubmission{Answer: "ELON"}); err != nil {
		t.Fatalf("solve main: %v", err)
	}
	p, err = agg.Mystery("alice", "london")
	if err != nil || !p.Main.Done || !p.Main.First {
		t.Fatalf("main progress: %+v %v", p.Main, err)
	}
}

func TestAllSpansCatalog(t *testing.T) {
	agg, _, _, _ := newTestAggregator(t)
	all, err := agg.All("alice")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("mysteries: %d", len(all))
	}
	if _, ok := all["london"]; !ok {
		t.Fatalf("london missing")
	}
	if _, ok := all["vienna"]; !ok {
		t.Fatalf("vienna missing")
	}
}
