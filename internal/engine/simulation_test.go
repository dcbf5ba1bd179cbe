package engine

import (
	"errors"
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/lingua-world/internal/config"
	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/phonology"
	"github.com/talgya/lingua-world/internal/world"
)

// testConfig returns a small, busy world.
func testConfig(seed int64) config.Config {
	cfg := config.Default()
	cfg.World.Width = 24
	cfg.World.Height = 18
	cfg.World.LandProbability = 0.5
	cfg.World.IslandBias = 0.4
	cfg.World.SmoothingPasses = 2
	cfg.Simulation.Seed = seed
	cfg.Simulation.SpreadScale = 0.5
	cfg.Simulation.MutationProbability = 0.3
	cfg.Simulation.SplitProbability = 0.02
	cfg.Simulation.StartingLanguages = 3
	cfg.Language.EvolveCooldown = 2
	return cfg
}

// allLand configures an unsmoothed w×h grid of land only.
func allLand(cfg *config.Config, w, h int) {
	cfg.World.Width = w
	cfg.World.Height = h
	cfg.World.LandProbability = 1
	cfg.World.IslandBias = 0
	cfg.World.SmoothingPasses = 0
	cfg.World.NoiseRoughness = 0
}

func newSim(t *testing.T, cfg config.Config) *Simulation {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func step(t *testing.T, s *Simulation) {
	t.Helper()
	if err := s.Step(); err != nil {
		t.Fatalf("Step at tick %d: %v", s.Tick(), err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"oversized grid", func(c *config.Config) { c.World.Width = 501 }},
		{"spread probability", func(c *config.Config) { c.Simulation.SpreadProbability = 1.2 }},
		{"phoneme bounds", func(c *config.Config) { c.Language.MinPhonemes = 46 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(1)
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("New() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSeedingPolicies(t *testing.T) {
	tests := []struct {
		policy     string
		wantSilent bool
	}{
		{config.SeedRandom, false},
		{config.SeedSparse, true},
		{config.SeedPerCommunity, false},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			cfg := testConfig(3)
			allLand(&cfg, 8, 8)
			cfg.Simulation.SeedingPolicy = tt.policy
			s := newSim(t, cfg)

			silent := 0
			for _, c := range s.communities {
				if !c.HasLanguage() {
					silent++
				}
			}
			if (silent > 0) != tt.wantSilent {
				t.Errorf("%d silent communities", silent)
			}
			switch tt.policy {
			case config.SeedPerCommunity:
				if len(s.languages) != len(s.communities) {
					t.Errorf("%d languages for %d communities", len(s.languages), len(s.communities))
				}
			default:
				if len(s.languages) != 3 {
					t.Errorf("%d starting languages, want 3", len(s.languages))
				}
			}
			for _, l := range s.languages {
				if l.Generation != 0 || l.ParentID != 0 {
					t.Errorf("starter %d is not a root", l.ID)
				}
			}
		})
	}
}

func TestRandomStarterCount(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := testConfig(seed)
		allLand(&cfg, 10, 10)
		cfg.Simulation.StartingLanguages = 0
		s := newSim(t, cfg)
		if n := len(s.languages); n < 2 || n > 3 {
			t.Fatalf("seed %d: %d starters, want 2 or 3", seed, n)
		}
	}
}

func TestBijectionInvariant(t *testing.T) {
	s := newSim(t, testConfig(11))
	for i := 0; i < 60; i++ {
		step(t, s)
		checkBijection(t, s)
	}
}

func checkBijection(t *testing.T, s *Simulation) {
	t.Helper()
	seen := make(map[uint64]bool)
	for idx, id := range s.world.Cells {
		if id == world.Water {
			continue
		}
		if seen[id] {
			t.Fatalf("community %d on more than one cell", id)
		}
		seen[id] = true
		c := s.community(id)
		if c == nil {
			t.Fatalf("cell %d references missing community %d", idx, id)
		}
		if got := s.world.Index(world.Coord{X: c.X, Y: c.Y}); got != idx {
			t.Fatalf("community %d at (%d,%d) but found at cell %d", id, c.X, c.Y, idx)
		}
	}
	if len(seen) != len(s.communities) {
		t.Fatalf("%d occupied cells, %d communities", len(seen), len(s.communities))
	}
	for i, c := range s.communities {
		if c.ID != uint64(i+1) {
			t.Fatalf("community at index %d has id %d", i, c.ID)
		}
	}
}

func TestLanguageLivenessInvariant(t *testing.T) {
	cfg := testConfig(5)
	cfg.Simulation.SplitProbability = 0.05
	s := newSim(t, cfg)
	for i := 0; i < 150; i++ {
		step(t, s)
		referenced := make(map[language.ID]int)
		for _, c := range s.communities {
			if c.HasLanguage() {
				referenced[c.LanguageID]++
			}
		}
		if !reflect.DeepEqual(slices.Sorted(maps.Keys(referenced)), slices.Sorted(maps.Keys(s.languages))) {
			t.Fatalf("tick %d: referenced %v, table %v", s.Tick(),
				slices.Sorted(maps.Keys(referenced)), slices.Sorted(maps.Keys(s.languages)))
		}
		st := s.Stats()
		if st.TotalLanguages != len(s.languages) {
			t.Fatalf("tick %d: stats report %d languages, table has %d", s.Tick(), st.TotalLanguages, len(s.languages))
		}
		if !reflect.DeepEqual(st.SpeakerCounts, referenced) {
			t.Fatalf("tick %d: speaker counts %v, want %v", s.Tick(), st.SpeakerCounts, referenced)
		}
	}
}

func TestLanguageInvariantsHoldUnderEvolution(t *testing.T) {
	cfg := testConfig(9)
	cfg.Simulation.MutationProbability = 1
	cfg.Simulation.BorrowProbability = 0.5
	cfg.Language.EvolveCooldown = 0
	s := newSim(t, cfg)
	b := cfg.LanguageParams().Inventory
	for i := 0; i < 80; i++ {
		step(t, s)
	}
	for _, l := range s.languages {
		if n := len(l.Phonemes); n < b.Min || n > b.Max {
			t.Errorf("%s: inventory size %d outside [%d,%d]", l.Name, n, b.Min, b.Max)
		}
		if l.Prestige < cfg.Language.PrestigeFloor || l.Prestige > cfg.Language.PrestigeCeiling {
			t.Errorf("%s: prestige %v out of range", l.Name, l.Prestige)
		}
		for m, w := range l.Lexicon {
			if !phonology.HasVowel(w.Form) {
				t.Errorf("%s: %q for %s has no vowel", l.Name, w.Form, m)
			}
		}
	}
}

func TestDeterminismUnderFixedSeed(t *testing.T) {
	a := newSim(t, testConfig(42))
	b := newSim(t, testConfig(42))
	for i := 0; i <= 40; i++ {
		sa, sb := a.Snapshot(), b.Snapshot()
		sa.RunID, sb.RunID = uuid.Nil, uuid.Nil
		if !reflect.DeepEqual(sa, sb) {
			t.Fatalf("snapshots diverge at tick %d", sa.Tick)
		}
		step(t, a)
		step(t, b)
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a := newSim(t, testConfig(1)).Snapshot()
	b := newSim(t, testConfig(2)).Snapshot()
	if reflect.DeepEqual(a.World, b.World) && reflect.DeepEqual(a.Communities, b.Communities) {
		t.Fatal("seeds 1 and 2 produced identical worlds")
	}
}

func TestSplitLineage(t *testing.T) {
	cfg := testConfig(17)
	allLand(&cfg, 12, 12)
	cfg.Simulation.StartingLanguages = 2
	cfg.Simulation.SpreadProbability = 0
	cfg.Simulation.BorrowProbability = 0
	cfg.Simulation.SplitProbability = 0.01
	s := newSim(t, cfg)

	splits := 0
	for i := 0; i < 200 && splits < 5; i++ {
		before := s.Snapshot()
		step(t, s)
		after := s.Snapshot()
		for _, e := range s.EventsSince(before.Tick) {
			if e.Kind != EventSplit {
				continue
			}
			splits++
			parent, ok := after.Languages[e.LanguageID]
			if !ok {
				t.Fatalf("parent %d missing after split", e.LanguageID)
			}
			child, ok := after.Languages[e.OtherID]
			if !ok {
				t.Fatalf("daughter %d missing after split", e.OtherID)
			}
			if child.FamilyID != parent.FamilyID {
				t.Errorf("daughter family %d, parent family %d", child.FamilyID, parent.FamilyID)
			}
			if child.Generation != parent.Generation+1 || child.ParentID != parent.ID {
				t.Errorf("daughter generation %d parent %d, want %d parent %d",
					child.Generation, child.ParentID, parent.Generation+1, parent.ID)
			}
			if child.Speakers < 1 {
				t.Errorf("daughter has %d speakers", child.Speakers)
			}
			for i, c := range after.Communities {
				if c.LanguageID == child.ID && before.Communities[i].LanguageID != parent.ID {
					t.Errorf("community %d moved to daughter from %d, not the parent", c.ID, before.Communities[i].LanguageID)
				}
			}
			if after.Stats.NewThisTick == 0 || after.Stats.CreatedLanguages < splits {
				t.Errorf("split not counted: %+v", after.Stats)
			}
		}
	}
	if splits == 0 {
		t.Fatal("no split in 200 ticks")
	}
}

func TestSplitNeedsMinimumSpeakers(t *testing.T) {
	cfg := testConfig(4)
	allLand(&cfg, 5, 1)
	cfg.Simulation.StartingLanguages = 1
	cfg.Simulation.SpreadProbability = 0
	cfg.Simulation.SplitProbability = 1
	cfg.Simulation.MinSplitSpeakers = 6
	s := newSim(t, cfg)
	for i := 0; i < 20; i++ {
		step(t, s)
	}
	if len(s.languages) != 1 || s.created != 0 {
		t.Fatalf("%d languages, %d created from 5 speakers", len(s.languages), s.created)
	}
}

func TestSpreadExtinctionCountedOnce(t *testing.T) {
	cfg := testConfig(8)
	allLand(&cfg, 2, 1)
	cfg.Simulation.StartingLanguages = 2
	cfg.Simulation.SpreadProbability = 1
	cfg.Simulation.SpreadScale = 1
	cfg.Simulation.BorrowProbability = 0
	cfg.Simulation.MutationProbability = 0
	cfg.Simulation.SplitProbability = 0
	s := newSim(t, cfg)
	for i := range s.communities {
		s.communities[i].Prestige = 1
	}
	if len(s.languages) != 2 {
		t.Fatalf("%d starting languages", len(s.languages))
	}

	for i := 0; i < 500 && len(s.languages) == 2; i++ {
		step(t, s)
	}
	if len(s.languages) != 1 {
		t.Fatalf("still %d languages", len(s.languages))
	}
	st := s.Stats()
	if st.ExtinctLanguages != 1 || st.TotalLanguages != 1 {
		t.Fatalf("extinct %d, total %d", st.ExtinctLanguages, st.TotalLanguages)
	}
	var extinctions []Event
	for _, e := range s.Events() {
		if e.Kind == EventExtinction {
			extinctions = append(extinctions, e)
		}
	}
	if len(extinctions) != 1 {
		t.Fatalf("%d extinction events", len(extinctions))
	}
	if _, ok := s.languages[extinctions[0].LanguageID]; ok {
		t.Fatal("extinct language still tracked")
	}
	if extinctions[0].Tick != s.Tick() {
		t.Fatalf("extinction at tick %d, stats at %d", extinctions[0].Tick, s.Tick())
	}
}

func TestSpreadConvergesToOneLanguage(t *testing.T) {
	cfg := testConfig(21)
	allLand(&cfg, 10, 10)
	cfg.Simulation.StartingLanguages = 2
	cfg.Simulation.SpreadProbability = 1
	cfg.Simulation.SpreadScale = 1
	cfg.Simulation.BorrowProbability = 0
	cfg.Simulation.MutationProbability = 0
	cfg.Simulation.SplitProbability = 0
	s := newSim(t, cfg)
	if len(s.communities) != 100 {
		t.Fatalf("%d communities on a 10x10 land grid", len(s.communities))
	}

	for i := 0; i < 20000 && len(s.languages) > 1; i++ {
		step(t, s)
	}
	st := s.Stats()
	if st.TotalLanguages != 1 {
		t.Fatalf("%d languages remain after %d ticks", st.TotalLanguages, s.Tick())
	}
	if st.ExtinctLanguages != 1 {
		t.Fatalf("extinction counter = %d, want 1", st.ExtinctLanguages)
	}
	if st.SpeakingCommunities != 100 || st.LargestLanguage != 100 {
		t.Fatalf("winner speaks in %d of %d communities", st.LargestLanguage, st.SpeakingCommunities)
	}
}

func TestAcquisitionFillsSilentCommunities(t *testing.T) {
	cfg := testConfig(6)
	allLand(&cfg, 6, 6)
	cfg.Simulation.SeedingPolicy = config.SeedSparse
	cfg.Simulation.StartingLanguages = 1
	cfg.Simulation.SpreadProbability = 0
	cfg.Simulation.AcquisitionProbability = 1
	cfg.Simulation.AcquireScale = 1
	cfg.Simulation.SplitProbability = 0
	s := newSim(t, cfg)
	for i := range s.communities {
		s.communities[i].Prestige = 0.9
	}
	for i := 0; i < 300 && s.Stats().SpeakingCommunities < 36; i++ {
		step(t, s)
	}
	if got := s.Stats().SpeakingCommunities; got != 36 {
		t.Fatalf("%d of 36 communities speak", got)
	}
	if len(s.languages) != 1 {
		t.Fatalf("%d languages, want the single starter", len(s.languages))
	}
}

func TestTopLanguagesSorted(t *testing.T) {
	cfg := testConfig(13)
	cfg.Simulation.TopK = 3
	cfg.Simulation.SplitProbability = 0.05
	s := newSim(t, cfg)
	for i := 0; i < 100; i++ {
		step(t, s)
	}
	top := s.Stats().TopLanguages
	if len(top) > 3 {
		t.Fatalf("top-K has %d entries", len(top))
	}
	for i := 1; i < len(top); i++ {
		a, b := top[i-1], top[i]
		if a.Speakers < b.Speakers || a.Speakers == b.Speakers && a.ID > b.ID {
			t.Fatalf("top languages out of order: %+v", top)
		}
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := newSim(t, testConfig(2))
	snap := s.Snapshot()
	if len(snap.Communities) == 0 {
		t.Skip("no land")
	}
	snap.Communities[0].LanguageID = 9999
	snap.World.Cells[0] = 9999
	for id, rec := range snap.Languages {
		rec.Phonemes[0] = "#"
		snap.Languages[id] = rec
	}
	snap.Stats.SpeakerCounts[1] = -1

	again := s.Snapshot()
	if again.Communities[0].LanguageID == 9999 || again.World.Cells[0] == 9999 {
		t.Fatal("snapshot aliases communities or world")
	}
	for _, rec := range again.Languages {
		if rec.Phonemes[0] == "#" {
			t.Fatal("snapshot aliases phoneme inventory")
		}
	}
	if again.Stats.SpeakerCounts[1] == -1 {
		t.Fatal("snapshot aliases speaker counts")
	}
}

func TestResetReproducesWorld(t *testing.T) {
	s := newSim(t, testConfig(31))
	initial := s.Snapshot()
	for i := 0; i < 10; i++ {
		step(t, s)
	}
	s.Reset()
	again := s.Snapshot()
	if again.RunID == initial.RunID {
		t.Error("reset kept the run id")
	}
	initial.RunID, again.RunID = uuid.Nil, uuid.Nil
	if !reflect.DeepEqual(initial, again) {
		t.Fatal("reset did not reproduce the initial world")
	}
}

func TestNewWorld(t *testing.T) {
	s := newSim(t, testConfig(31))
	seed := s.Seed()

	if err := s.NewWorld(nil); err != nil {
		t.Fatalf("NewWorld(nil): %v", err)
	}
	if s.Seed() == seed {
		t.Error("NewWorld(nil) kept the seed")
	}
	if s.Tick() != 0 {
		t.Errorf("tick = %d after NewWorld", s.Tick())
	}

	bad := testConfig(5)
	bad.World.Height = 0
	before := s.Snapshot()
	if err := s.NewWorld(&bad); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("NewWorld(bad) = %v, want ErrInvalid", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatal("rejected NewWorld changed state")
	}

	next := testConfig(77)
	next.World.Width = 16
	if err := s.NewWorld(&next); err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	if s.Seed() != 77 || s.world.Width != 16 {
		t.Fatalf("seed %d width %d after NewWorld", s.Seed(), s.world.Width)
	}
}

func TestStepRollsBackOnInvariantViolation(t *testing.T) {
	cfg := testConfig(12)
	allLand(&cfg, 8, 8)
	cfg.Simulation.SpreadProbability = 0
	cfg.Simulation.MutationProbability = 1
	cfg.Language.EvolveCooldown = 0
	delivered := 0
	s, err := New(cfg, WithEventSink(func(events []Event) { delivered += len(events) }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		step(t, s)
	}

	s.communities[10].LanguageID = 9999
	before := s.Snapshot()
	eventsBefore := s.Events()
	deliveredBefore := delivered

	err = s.Step()
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("Step() = %v, want ErrInvariant", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Fatal("failed tick left partial state")
	}
	if !reflect.DeepEqual(eventsBefore, s.Events()) {
		t.Fatal("failed tick recorded events")
	}
	if delivered != deliveredBefore {
		t.Fatalf("failed tick delivered %d events to the sink", delivered-deliveredBefore)
	}
}

func TestEventsSince(t *testing.T) {
	s := newSim(t, testConfig(3))
	s.events = []Event{{Tick: 0}, {Tick: 2}, {Tick: 2}, {Tick: 5}}
	tests := []struct {
		since uint64
		want  int
	}{
		{0, 3},
		{1, 3},
		{2, 1},
		{5, 0},
	}
	for _, tt := range tests {
		if got := len(s.EventsSince(tt.since)); got != tt.want {
			t.Errorf("EventsSince(%d) = %d events, want %d", tt.since, got, tt.want)
		}
	}
}

func TestEventHistoryBounded(t *testing.T) {
	s := newSim(t, testConfig(3))
	for i := 0; i < MaxEvents+50; i++ {
		s.record(Event{Tick: uint64(i), Kind: EventRename, LanguageID: 1})
	}
	s.flushEvents()
	if len(s.events) != MaxEvents {
		t.Errorf("global history %d, want %d", len(s.events), MaxEvents)
	}
	if len(s.history[1]) != MaxLanguageHistory {
		t.Errorf("language history %d, want %d", len(s.history[1]), MaxLanguageHistory)
	}
	if last := s.history[1][MaxLanguageHistory-1]; last.Tick != uint64(MaxEvents+49) {
		t.Errorf("newest retained tick %d", last.Tick)
	}

	s.record(Event{Kind: EventExtinction, LanguageID: 1})
	s.flushEvents()
	if _, ok := s.history[1]; ok {
		t.Error("history kept after extinction")
	}
}

func TestEventSinkSeesEveryEvent(t *testing.T) {
	var got []Event
	s, err := New(testConfig(8), WithEventSink(func(events []Event) { got = append(got, events...) }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 300; i++ {
		step(t, s)
	}
	// Push the bounded history past its limit.
	for i := 0; i < MaxEvents; i++ {
		s.record(Event{Tick: s.tick, Kind: EventRename, LanguageID: 1})
	}
	s.flushEvents()

	counts := make(map[EventKind]int)
	for _, e := range got {
		counts[e.Kind]++
		switch e.Kind {
		case EventFounded, EventSplit:
			if e.Born == nil {
				t.Fatalf("%s event without birth record: %v", e.Kind, e)
			}
			if e.Born.CreatedAt != e.Tick || e.Born.Name == "" || len(e.Born.Phonemes) == 0 {
				t.Errorf("birth record %+v for %v", *e.Born, e)
			}
		default:
			if e.Born != nil {
				t.Errorf("%s event carries a birth record", e.Kind)
			}
		}
	}
	st := s.Stats()
	if counts[EventFounded] != 3 {
		t.Errorf("%d founded events, want 3", counts[EventFounded])
	}
	if counts[EventSplit] != st.CreatedLanguages || counts[EventExtinction] != st.ExtinctLanguages {
		t.Errorf("sink saw %d splits and %d extinctions, stats say %d and %d",
			counts[EventSplit], counts[EventExtinction], st.CreatedLanguages, st.ExtinctLanguages)
	}

	retained := s.Events()
	if len(got) <= len(retained) {
		t.Fatalf("sink saw %d events, history retains %d", len(got), len(retained))
	}
	if !reflect.DeepEqual(got[len(got)-len(retained):], retained) {
		t.Error("retained history is not the tail of the delivered events")
	}

	got = nil
	s.Reset()
	if len(got) != 3 || got[0].Kind != EventFounded {
		t.Errorf("sink after Reset saw %d events", len(got))
	}
}
