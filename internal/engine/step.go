package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/talgya/lingua-world/internal/entropy"
	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/social"
)

// tickCounters counts frequent interactions that are too common to record
// as events.
type tickCounters struct {
	Acquisitions int
	Spreads      int
	Borrows      int
	Evolutions   int
	NewLanguages int
}

// checkpoint is the pre-tick state restored when a tick fails. Language
// values are preserved lazily by preserve before their first mutation.
type checkpoint struct {
	tick           uint64
	communities    []social.Community
	languages      map[language.ID]*language.Language
	speakers       map[language.ID]int
	nextLanguageID language.ID
	nextFamilyID   language.ID
	extinct        int
	created        int
}

// Step advances the world by exactly one tick. If the tick detects an
// inconsistency it returns an error wrapping ErrInvariant and the world is
// left as it was before the call. The random generator is not rewound.
func (s *Simulation) Step() error {
	cp := s.checkpoint()
	s.beginTick()
	if err := s.advance(); err != nil {
		s.restore(cp)
		return fmt.Errorf("tick %d: %w", cp.tick+1, err)
	}
	s.commit()
	return nil
}

func (s *Simulation) checkpoint() checkpoint {
	return checkpoint{
		tick:           s.tick,
		communities:    slices.Clone(s.communities),
		languages:      maps.Clone(s.languages),
		speakers:       maps.Clone(s.speakers),
		nextLanguageID: s.nextLanguageID,
		nextFamilyID:   s.nextFamilyID,
		extinct:        s.extinct,
		created:        s.created,
	}
}

func (s *Simulation) restore(cp checkpoint) {
	for id, orig := range s.preserved {
		if _, ok := cp.languages[id]; ok {
			cp.languages[id] = orig
		}
	}
	s.tick = cp.tick
	s.communities = cp.communities
	s.languages = cp.languages
	s.speakers = cp.speakers
	s.nextLanguageID = cp.nextLanguageID
	s.nextFamilyID = cp.nextFamilyID
	s.extinct = cp.extinct
	s.created = cp.created
	s.pending = s.pending[:0]
	s.preserved = nil
}

func (s *Simulation) beginTick() {
	s.pending = s.pending[:0]
	s.preserved = make(map[language.ID]*language.Language)
	s.counters = tickCounters{}
}

// commit publishes the tick: events are flushed and statistics recomputed.
func (s *Simulation) commit() {
	s.flushEvents()
	s.preserved = nil
	s.updateStats()
}

// preserve keeps a pre-tick copy of l before it is mutated in place.
// Languages created during the tick need no copy.
func (s *Simulation) preserve(l *language.Language) {
	if s.preserved == nil || l.CreatedAt == s.tick {
		return
	}
	if _, ok := s.preserved[l.ID]; !ok {
		s.preserved[l.ID] = l.Clone()
	}
}

// advance runs the tick pipeline: internal evolution, community
// interactions in random order, extinction cleanup, and verification.
func (s *Simulation) advance() error {
	s.tick++

	if err := s.evolveLanguages(); err != nil {
		return err
	}
	for _, i := range s.rng.Perm(len(s.communities)) {
		if err := s.visit(&s.communities[i]); err != nil {
			return err
		}
	}
	s.cleanup()
	return s.verify()
}

// evolveLanguages gives every language, in id order, a chance to evolve
// under the influence of its contact languages.
func (s *Simulation) evolveLanguages() error {
	contacts := s.contactIndex()
	p := s.cfg.Simulation.MutationProbability
	for _, id := range slices.Sorted(maps.Keys(s.languages)) {
		if !entropy.Chance(s.rng, p) {
			continue
		}
		l := s.languages[id]
		s.preserve(l)
		ch, ok := l.Evolve(s.rng, s.tick, s.params, s.contactsOf(id, contacts))
		if !ok {
			continue
		}
		s.counters.Evolutions++
		if ch.NewRule != nil {
			s.record(Event{
				Tick:        s.tick,
				Kind:        EventSoundChange,
				LanguageID:  id,
				Description: fmt.Sprintf("%s gained sound change %s", l.Name, ch.NewRule),
			})
		}
		if ch.Renamed {
			s.record(Event{
				Tick:        s.tick,
				Kind:        EventRename,
				LanguageID:  id,
				Description: fmt.Sprintf("%s is now called %s", ch.OldName, l.Name),
			})
		}
	}
	return nil
}

// contactIndex maps each language to the distinct languages spoken in any
// community adjacent to one of its speakers.
func (s *Simulation) contactIndex() map[language.ID]map[language.ID]bool {
	idx := make(map[language.ID]map[language.ID]bool)
	for i := range s.communities {
		c := &s.communities[i]
		if !c.HasLanguage() {
			continue
		}
		for _, n := range s.neighbors(c) {
			if !n.HasLanguage() || n.LanguageID == c.LanguageID {
				continue
			}
			set := idx[c.LanguageID]
			if set == nil {
				set = make(map[language.ID]bool)
				idx[c.LanguageID] = set
			}
			set[n.LanguageID] = true
		}
	}
	return idx
}

// contactsOf returns id's contact languages, most prestigious first (ties
// by id), capped at the configured contact limit.
func (s *Simulation) contactsOf(id language.ID, idx map[language.ID]map[language.ID]bool) []*language.Language {
	var out []*language.Language
	for cid := range idx[id] {
		if l, ok := s.languages[cid]; ok {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b *language.Language) int {
		switch {
		case a.Prestige > b.Prestige:
			return -1
		case a.Prestige < b.Prestige:
			return 1
		}
		return compareIDs(a.ID, b.ID)
	})
	if limit := s.cfg.Simulation.ContactLimit; len(out) > limit {
		out = out[:limit]
	}
	return out
}

func compareIDs(a, b language.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cleanup removes every language no community references. Spread already
// retires languages as they lose their last speaker, so this only catches
// what slipped through.
func (s *Simulation) cleanup() {
	referenced := make(map[language.ID]int, len(s.languages))
	for i := range s.communities {
		if id := s.communities[i].LanguageID; id != 0 {
			referenced[id]++
		}
	}
	for _, id := range slices.Sorted(maps.Keys(s.languages)) {
		if referenced[id] == 0 {
			s.extinguish(id)
		}
	}
	s.speakers = referenced
}

// verify checks that every referenced language exists.
func (s *Simulation) verify() error {
	for i := range s.communities {
		c := &s.communities[i]
		if c.HasLanguage() && s.languages[c.LanguageID] == nil {
			return fmt.Errorf("%w: community %d speaks unknown language %d", ErrInvariant, c.ID, c.LanguageID)
		}
	}
	if len(s.speakers) != len(s.languages) {
		return fmt.Errorf("%w: %d spoken languages, %d tracked", ErrInvariant, len(s.speakers), len(s.languages))
	}
	return nil
}

// extinguish removes a speakerless language and counts it.
func (s *Simulation) extinguish(id language.ID) {
	l, ok := s.languages[id]
	if !ok {
		return
	}
	delete(s.languages, id)
	delete(s.speakers, id)
	s.extinct++
	s.record(Event{
		Tick:        s.tick,
		Kind:        EventExtinction,
		LanguageID:  id,
		Description: fmt.Sprintf("%s died out after %d ticks", l.Name, s.tick-l.CreatedAt),
	})
}
