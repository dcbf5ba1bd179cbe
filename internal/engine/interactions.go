package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/lingua-world/internal/entropy"
	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/social"
	"github.com/talgya/lingua-world/internal/world"
)

// maxInteractionChance caps every prestige-derived success chance.
const maxInteractionChance = 0.95

// visit runs one community's interactions for the tick. A silent community
// may only acquire; a speaking one may spread, borrow, and split.
func (s *Simulation) visit(c *social.Community) error {
	sc := s.cfg.Simulation
	if !c.HasLanguage() {
		if entropy.Chance(s.rng, sc.AcquisitionProbability) {
			return s.acquire(c)
		}
		return nil
	}
	if entropy.Chance(s.rng, sc.SpreadProbability) {
		if err := s.spread(c); err != nil {
			return err
		}
	}
	if entropy.Chance(s.rng, sc.BorrowProbability) {
		if err := s.borrow(c); err != nil {
			return err
		}
	}
	if entropy.Chance(s.rng, sc.SplitProbability) {
		if err := s.split(c); err != nil {
			return err
		}
	}
	return nil
}

// lookup returns the language c speaks, or ErrInvariant if it is missing.
func (s *Simulation) lookup(c *social.Community) (*language.Language, error) {
	l, ok := s.languages[c.LanguageID]
	if !ok {
		return nil, fmt.Errorf("%w: community %d speaks unknown language %d", ErrInvariant, c.ID, c.LanguageID)
	}
	return l, nil
}

// mostPrestigious returns the neighbour with the highest local prestige that
// speaks a language other than exclude, or nil. Ties keep the first in
// neighbour order.
func (s *Simulation) mostPrestigious(c *social.Community, exclude language.ID) *social.Community {
	var best *social.Community
	for _, n := range s.neighbors(c) {
		if !n.HasLanguage() || n.LanguageID == exclude {
			continue
		}
		if best == nil || n.Prestige > best.Prestige {
			best = n
		}
	}
	return best
}

// acquire lets a silent community pick up the language of its most
// prestigious neighbour.
func (s *Simulation) acquire(c *social.Community) error {
	source := s.mostPrestigious(c, 0)
	if source == nil {
		return nil
	}
	if _, err := s.lookup(source); err != nil {
		return err
	}
	chance := min(maxInteractionChance, source.Prestige*s.cfg.Simulation.AcquireScale)
	if !entropy.Chance(s.rng, chance) {
		return nil
	}
	s.assign(c, source.LanguageID)
	s.counters.Acquisitions++
	return nil
}

// spread tries to convert one neighbour with a different (or no) language.
// Targets are tried in random order and the first success ends the attempt.
// A language losing its last speaker is retired immediately.
func (s *Simulation) spread(c *social.Community) error {
	l, err := s.lookup(c)
	if err != nil {
		return err
	}
	var targets []*social.Community
	for _, n := range s.neighbors(c) {
		if n.LanguageID != c.LanguageID {
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	s.rng.Shuffle(len(targets), func(i, j int) {
		targets[i], targets[j] = targets[j], targets[i]
	})

	strength := min(maxInteractionChance, l.Prestige*c.Prestige*s.cfg.Simulation.SpreadScale)
	for _, t := range targets {
		if !entropy.Chance(s.rng, strength) {
			continue
		}
		old := t.LanguageID
		t.Adopt(c.LanguageID, c.Prestige)
		s.speakers[c.LanguageID]++
		s.counters.Spreads++
		if old != 0 {
			s.speakers[old]--
			if s.speakers[old] <= 0 {
				s.extinguish(old)
			}
		}
		return nil
	}
	return nil
}

// borrow copies one word into c's language from its most prestigious
// foreign-speaking neighbour.
func (s *Simulation) borrow(c *social.Community) error {
	donor := s.mostPrestigious(c, c.LanguageID)
	if donor == nil {
		return nil
	}
	src, err := s.lookup(donor)
	if err != nil {
		return err
	}
	dst, err := s.lookup(c)
	if err != nil {
		return err
	}
	meanings := src.Meanings()
	if len(meanings) == 0 {
		return nil
	}
	meaning := meanings[s.rng.Intn(len(meanings))]
	if !entropy.Chance(s.rng, min(maxInteractionChance, donor.Prestige*s.cfg.Simulation.BorrowScale)) {
		return nil
	}
	s.preserve(dst)
	if dst.Borrow(s.rng, src, meaning, s.tick) {
		s.counters.Borrows++
	}
	return nil
}

// split creates a daughter of c's language and moves a small connected
// group of its speakers, starting at c, over to it. The parent always keeps
// at least one speaker.
func (s *Simulation) split(c *social.Community) error {
	parent, err := s.lookup(c)
	if err != nil {
		return err
	}
	sc := s.cfg.Simulation
	n := s.speakers[parent.ID]
	if n < sc.MinSplitSpeakers {
		return nil
	}
	limit := max(1, min(sc.MaxSplitSize, (n-1)/2))
	region := s.splitRegion(c, 1+s.rng.Intn(limit))

	daughter := language.Split(s.rng, parent, s.nextLanguageID, s.tick, s.params)
	s.nextLanguageID++
	s.languages[daughter.ID] = daughter
	for _, m := range region {
		m.LanguageID = daughter.ID
	}
	s.speakers[parent.ID] -= len(region)
	s.speakers[daughter.ID] = len(region)
	s.created++
	s.counters.NewLanguages++

	born := s.languageRecord(daughter)
	s.record(Event{
		Tick:       s.tick,
		Kind:       EventSplit,
		LanguageID: parent.ID,
		OtherID:    daughter.ID,
		Description: fmt.Sprintf("%s split from %s (%s generation, %d %s)",
			daughter.Name, parent.Name, humanize.Ordinal(daughter.Generation),
			len(region), pluralize(len(region), "community", "communities")),
		Born: &born,
	})
	return nil
}

// splitRegion collects up to k communities speaking c's language by
// breadth-first search from c over same-language neighbours.
func (s *Simulation) splitRegion(c *social.Community, k int) []*social.Community {
	lang := c.LanguageID
	region := []*social.Community{c}
	seen := map[world.Coord]bool{{X: c.X, Y: c.Y}: true}
	for i := 0; i < len(region) && len(region) < k; i++ {
		nbrs := s.neighbors(region[i])
		s.rng.Shuffle(len(nbrs), func(a, b int) { nbrs[a], nbrs[b] = nbrs[b], nbrs[a] })
		for _, n := range nbrs {
			pos := world.Coord{X: n.X, Y: n.Y}
			if n.LanguageID != lang || seen[pos] {
				continue
			}
			seen[pos] = true
			region = append(region, n)
			if len(region) == k {
				break
			}
		}
	}
	return region
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
