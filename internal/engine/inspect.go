package engine

import (
	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/social"
	"github.com/talgya/lingua-world/internal/world"
)

// LexiconSampleSize bounds the lexicon shown by Inspect.
const LexiconSampleSize = 12

// WordSample is one lexicon entry shown by Inspect.
type WordSample struct {
	Meaning  string `json:"meaning"`
	Form     string `json:"form"`
	Borrowed bool   `json:"borrowed"`
	Source   string `json:"source,omitempty"` // Donor name, if still alive
}

// Relation describes another language relative to the inspected one.
// Similarity is the mean normalized edit-distance similarity over shared
// meanings.
type Relation struct {
	ID         language.ID `json:"id"`
	Name       string      `json:"name"`
	Prestige   float64     `json:"prestige"`
	Similarity float64     `json:"similarity"`
	Shared     int         `json:"shared"`
}

// InspectorRecord details the community on one tile and its language.
type InspectorRecord struct {
	Community social.Community `json:"community"`
	Language  LanguageRecord   `json:"language"`
	Lexicon   []WordSample     `json:"lexicon"`
	Contacts  []Relation       `json:"contacts"`
	Parent    *Relation        `json:"parent,omitempty"` // Nil for roots or extinct parents
	History   []string         `json:"history"`
}

// Inspect returns the detail for the tile at (x, y). It reports false for
// off-grid coordinates, water, and communities without a language. Inspect
// draws no randomness.
func (s *Simulation) Inspect(x, y int) (InspectorRecord, bool) {
	c := s.communityAt(world.Coord{X: x, Y: y})
	if c == nil || !c.HasLanguage() {
		return InspectorRecord{}, false
	}
	l, ok := s.languages[c.LanguageID]
	if !ok {
		return InspectorRecord{}, false
	}

	rec := InspectorRecord{
		Community: *c,
		Language:  s.languageRecord(l),
		Lexicon:   s.lexiconSample(l),
	}
	for _, other := range s.contactsOf(l.ID, s.contactIndex()) {
		rec.Contacts = append(rec.Contacts, relation(l, other))
	}
	if p, ok := s.languages[l.ParentID]; ok {
		r := relation(l, p)
		rec.Parent = &r
	}
	for _, e := range s.history[l.ID] {
		rec.History = append(rec.History, e.String())
	}
	return rec, true
}

// lexiconSample picks evenly spaced entries across the sorted meanings.
func (s *Simulation) lexiconSample(l *language.Language) []WordSample {
	meanings := l.Meanings()
	n := min(LexiconSampleSize, len(meanings))
	out := make([]WordSample, 0, n)
	for i := 0; i < n; i++ {
		w := l.Lexicon[meanings[i*len(meanings)/n]]
		ws := WordSample{Meaning: w.Meaning, Form: w.Form, Borrowed: w.Borrowed}
		if donor, ok := s.languages[w.Source]; ok && w.Borrowed {
			ws.Source = donor.Name
		}
		out = append(out, ws)
	}
	return out
}

func relation(l, other *language.Language) Relation {
	sim, shared := language.Similarity(l, other)
	return Relation{
		ID:         other.ID,
		Name:       other.Name,
		Prestige:   other.Prestige,
		Similarity: sim,
		Shared:     shared,
	}
}
