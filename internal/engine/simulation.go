// Simulation ties together terrain, communities, and languages and advances
// them one tick at a time.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/google/uuid"

	"github.com/talgya/lingua-world/internal/config"
	"github.com/talgya/lingua-world/internal/entropy"
	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/social"
	"github.com/talgya/lingua-world/internal/world"
)

// Simulation holds the complete world state. It is not safe for concurrent
// use; callers serialize Step, Snapshot, and Inspect.
type Simulation struct {
	cfg    config.Config
	params language.Params
	source entropy.SourceFunc
	seed   int64
	runID  uuid.UUID
	rng    *rand.Rand

	world       *world.Map
	communities []social.Community // Index = ID-1
	languages   map[language.ID]*language.Language
	speakers    map[language.ID]int // Live speaking-community counts

	tick           uint64
	nextLanguageID language.ID
	nextFamilyID   language.ID
	extinct        int // Cumulative
	created        int // Cumulative, via split

	stats   Stats
	events  []Event                 // Recent events, oldest first
	history map[language.ID][]Event // Per-language recent events
	sink    EventSink

	// Per-tick scratch, reset by beginTick.
	pending   []Event
	preserved map[language.ID]*language.Language // Pre-tick copies of languages mutated this tick
	counters  tickCounters
}

// Option customizes a Simulation at creation.
type Option func(*Simulation)

// WithSource substitutes the random source. The same source and seed
// reproduce a run tick for tick.
func WithSource(src entropy.SourceFunc) Option {
	return func(s *Simulation) { s.source = src }
}

// WithEventSink delivers every committed event to sink, including those
// the bounded histories later drop. The sink survives Reset and NewWorld.
func WithEventSink(sink EventSink) Option {
	return func(s *Simulation) { s.sink = sink }
}

// New validates cfg and builds a fresh world from it. A zero seed is
// replaced with a random one, available afterwards from Seed.
func New(cfg config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create simulation: %w", err)
	}
	s := &Simulation{source: entropy.DefaultSource}
	for _, opt := range opts {
		opt(s)
	}
	s.build(cfg, entropy.ResolveSeed(cfg.Simulation.Seed))
	return s, nil
}

// Reset rebuilds the world from the current configuration and seed.
func (s *Simulation) Reset() {
	s.build(s.cfg, s.seed)
}

// NewWorld replaces all state. With a nil cfg the current configuration is
// reused under a fresh seed drawn from the simulation's generator; otherwise
// cfg is validated first and nothing changes if it is rejected.
func (s *Simulation) NewWorld(cfg *config.Config) error {
	if cfg == nil {
		s.build(s.cfg, entropy.ResolveSeed(s.rng.Int63()))
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("new world: %w", err)
	}
	s.build(*cfg, entropy.ResolveSeed(cfg.Simulation.Seed))
	return nil
}

// build discards all owned state and seeds a new world.
func (s *Simulation) build(cfg config.Config, seed int64) {
	next := &Simulation{
		cfg:            cfg,
		params:         cfg.LanguageParams(),
		source:         s.source,
		sink:           s.sink,
		seed:           seed,
		runID:          uuid.New(),
		rng:            entropy.New(seed, s.source),
		languages:      make(map[language.ID]*language.Language),
		speakers:       make(map[language.ID]int),
		history:        make(map[language.ID][]Event),
		nextLanguageID: 1,
		nextFamilyID:   1,
	}
	next.seedWorld()
	next.commit()
	*s = *next

	slog.Info("world created",
		"run", s.runID,
		"seed", s.seed,
		"grid", fmt.Sprintf("%dx%d", cfg.World.Width, cfg.World.Height),
		"communities", len(s.communities),
		"languages", len(s.languages),
		"policy", cfg.Simulation.SeedingPolicy,
	)
}

// seedWorld generates terrain, places one community per land cell, and
// founds the starting languages.
func (s *Simulation) seedWorld() {
	sc := s.cfg.Simulation
	terrain := world.Generate(s.cfg.GenConfig(), s.rng)

	s.world = world.NewMap(terrain.Width, terrain.Height)
	for y := 0; y < terrain.Height; y++ {
		for x := 0; x < terrain.Width; x++ {
			c := world.Coord{X: x, Y: y}
			if !terrain.IsLand(c) {
				continue
			}
			id := social.CommunityID(len(s.communities) + 1)
			s.communities = append(s.communities, social.Community{
				ID:         id,
				X:          x,
				Y:          y,
				Population: sc.MinPopulation + s.rng.Intn(sc.MaxPopulation-sc.MinPopulation+1),
				Prestige:   s.rng.Float64(),
			})
			s.world.Set(c, id)
		}
	}
	if len(s.communities) == 0 {
		return
	}

	if sc.SeedingPolicy == config.SeedPerCommunity {
		for i := range s.communities {
			s.assign(&s.communities[i], s.foundLanguage().ID)
		}
		return
	}

	n := sc.StartingLanguages
	if n == 0 {
		n = 2 + s.rng.Intn(2)
	}
	var starters []language.ID
	for _, c := range world.PlaceStarters(terrain, n, s.rng) {
		l := s.foundLanguage()
		s.assign(s.communityAt(c), l.ID)
		starters = append(starters, l.ID)
	}
	if sc.SeedingPolicy == config.SeedSparse {
		return
	}
	for i := range s.communities {
		if c := &s.communities[i]; !c.HasLanguage() {
			s.assign(c, starters[s.rng.Intn(len(starters))])
		}
	}
}

// foundLanguage creates a root language in a new family.
func (s *Simulation) foundLanguage() *language.Language {
	l := language.NewRoot(s.rng, s.nextLanguageID, s.nextFamilyID, s.tick, s.params)
	s.nextLanguageID++
	s.nextFamilyID++
	s.languages[l.ID] = l
	born := s.languageRecord(l)
	s.record(Event{
		Tick:        s.tick,
		Kind:        EventFounded,
		LanguageID:  l.ID,
		Description: fmt.Sprintf("%s founded with %d phonemes and %d words", l.Name, len(l.Phonemes), len(l.Lexicon)),
		Born:        &born,
	})
	return l
}

// assign sets a language on a community that has none.
func (s *Simulation) assign(c *social.Community, id language.ID) {
	c.LanguageID = id
	s.speakers[id]++
}

// community returns the community with the given id, or nil.
func (s *Simulation) community(id social.CommunityID) *social.Community {
	if id == world.Water || id > uint64(len(s.communities)) {
		return nil
	}
	return &s.communities[id-1]
}

func (s *Simulation) communityAt(c world.Coord) *social.Community {
	return s.community(s.world.At(c))
}

// neighbors returns the communities orthogonally adjacent to c.
func (s *Simulation) neighbors(c *social.Community) []*social.Community {
	ids := s.world.OccupiedNeighbors(world.Coord{X: c.X, Y: c.Y})
	out := make([]*social.Community, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.community(id))
	}
	return out
}

// Tick returns the number of ticks processed since the world was built.
func (s *Simulation) Tick() uint64 { return s.tick }

// Seed returns the resolved seed of the current world.
func (s *Simulation) Seed() int64 { return s.seed }

// RunID identifies the current world. Reset and NewWorld assign a new one.
func (s *Simulation) RunID() uuid.UUID { return s.runID }

// Config returns the configuration the current world was built from.
func (s *Simulation) Config() config.Config { return s.cfg }

// Stats returns a copy of the latest statistics.
func (s *Simulation) Stats() Stats { return s.stats.clone() }

// Events returns all retained events, oldest first.
func (s *Simulation) Events() []Event { return slices.Clone(s.events) }

// EventsSince returns retained events with Tick > tick, oldest first.
func (s *Simulation) EventsSince(tick uint64) []Event {
	i := len(s.events)
	for i > 0 && s.events[i-1].Tick > tick {
		i--
	}
	return slices.Clone(s.events[i:])
}
