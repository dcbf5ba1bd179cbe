package engine

import (
	"slices"

	"github.com/google/uuid"

	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/social"
	"github.com/talgya/lingua-world/internal/world"
)

// LanguageRecord is the display view of a language. It carries no rule
// engine state and no references into the simulation.
type LanguageRecord struct {
	ID           language.ID `json:"id" csv:"id"`
	FamilyID     language.ID `json:"family_id" csv:"family_id"`
	ParentID     language.ID `json:"parent_id,omitempty" csv:"parent_id"`
	Generation   int         `json:"generation" csv:"generation"`
	Name         string      `json:"name" csv:"name"`
	Phonemes     []string    `json:"phonemes" csv:"-"`
	Vocabulary   int         `json:"vocabulary" csv:"vocabulary"`
	Borrowed     int         `json:"borrowed" csv:"borrowed"`
	Prestige     float64     `json:"prestige" csv:"prestige"`
	Conservatism float64     `json:"conservatism" csv:"conservatism"`
	Speakers     int         `json:"speakers" csv:"speakers"`
	SampleWord   string      `json:"sample_word" csv:"sample_word"`
	Rules        int         `json:"rules" csv:"rules"`
	CreatedAt    uint64      `json:"created_at" csv:"created_at"`
	LastEvolved  uint64      `json:"last_evolved" csv:"last_evolved"`
}

// Snapshot is an immutable copy of the simulation after a tick.
type Snapshot struct {
	RunID       uuid.UUID                      `json:"run_id"`
	Seed        int64                          `json:"seed"`
	Tick        uint64                         `json:"tick"`
	World       world.Map                      `json:"world"`
	Communities []social.Community             `json:"communities"`
	Languages   map[language.ID]LanguageRecord `json:"languages"`
	Stats       Stats                          `json:"stats"`
}

// Snapshot copies the current state. Nothing in the result aliases
// simulation-owned memory.
func (s *Simulation) Snapshot() Snapshot {
	langs := make(map[language.ID]LanguageRecord, len(s.languages))
	for id, l := range s.languages {
		langs[id] = s.languageRecord(l)
	}
	return Snapshot{
		RunID:       s.runID,
		Seed:        s.seed,
		Tick:        s.tick,
		World:       *s.world.Clone(),
		Communities: slices.Clone(s.communities),
		Languages:   langs,
		Stats:       s.stats.clone(),
	}
}

func (s *Simulation) languageRecord(l *language.Language) LanguageRecord {
	return LanguageRecord{
		ID:           l.ID,
		FamilyID:     l.FamilyID,
		ParentID:     l.ParentID,
		Generation:   l.Generation,
		Name:         l.Name,
		Phonemes:     slices.Clone(l.Phonemes),
		Vocabulary:   len(l.Lexicon),
		Borrowed:     l.BorrowedCount(),
		Prestige:     l.Prestige,
		Conservatism: l.Conservatism,
		Speakers:     s.speakers[l.ID],
		SampleWord:   l.SampleWord(),
		Rules:        l.Rules.Len(),
		CreatedAt:    l.CreatedAt,
		LastEvolved:  l.LastEvolved,
	}
}
