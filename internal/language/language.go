// Package language models an evolving language: its phoneme inventory,
// lexicon, prestige, lineage, and sound-change rules.
package language

import (
	"maps"
	"math/rand"
	"slices"

	"github.com/talgya/lingua-world/internal/phonology"
)

// ID identifies a language for the lifetime of a run. Zero means none.
type ID = uint64

// Params holds the tunables language creation and evolution read.
type Params struct {
	Inventory phonology.Bounds

	VocabMin int // Initial vocabulary target range
	VocabMax int
	MaxVocab int // Hard cap reached through evolution

	InheritProbability float64 // Chance a daughter keeps each parent word

	PrestigeFloor   float64
	PrestigeCeiling float64
	PrestigeDrift   float64 // Width of the per-evolution random walk
	ConservatismMax float64 // Roots draw conservatism from [0, ConservatismMax)

	// ConservatismFactor scales how strongly conservatism suppresses change.
	ConservatismFactor float64
	ContactInfluence   float64 // Pull of contact-language prestige per evolution
	SoundChangeChance  float64 // Base chance to synthesize a rule per evolution

	MaxRules          int
	MaxChangesPerWord int
	WordsPerEvolution int
	EvolveCooldown    uint64 // Minimum ticks between evolutions
}

// Word is one lexicon entry. Borrowed words record their donor.
type Word struct {
	Form      string `json:"form"`
	Meaning   string `json:"meaning"`
	Borrowed  bool   `json:"borrowed"`
	Source    ID     `json:"source,omitempty"` // Donor language when Borrowed
	CreatedAt uint64 `json:"created_at"`
	ChangedAt uint64 `json:"changed_at"`
}

// Language is a single language in the simulation.
type Language struct {
	ID         ID     `json:"id"`
	FamilyID   ID     `json:"family_id"`
	Generation int    `json:"generation"`
	ParentID   ID     `json:"parent_id,omitempty"` // Zero for roots
	Name       string `json:"name"`

	Phonemes     []string         `json:"phonemes"`
	Lexicon      map[string]*Word `json:"lexicon"`
	Prestige     float64          `json:"prestige"`
	Conservatism float64          `json:"conservatism"`

	Rules *phonology.RuleSet `json:"-"`

	CreatedAt   uint64 `json:"created_at"`
	LastEvolved uint64 `json:"last_evolved"`
}

// NewRoot creates a language with no parent and a fresh family.
func NewRoot(rng *rand.Rand, id, family ID, tick uint64, p Params) *Language {
	l := &Language{
		ID:           id,
		FamilyID:     family,
		Name:         GenerateName(rng),
		Phonemes:     phonology.GenerateInventory(rng, p.Inventory),
		Lexicon:      make(map[string]*Word),
		Prestige:     clamp(0.3+rng.Float64()*0.6, p.PrestigeFloor, p.PrestigeCeiling),
		Conservatism: rng.Float64() * p.ConservatismMax,
		Rules:        phonology.NewRuleSet(p.MaxRules),
		CreatedAt:    tick,
		LastEvolved:  tick,
	}
	l.fillVocabulary(rng, tick, p)
	return l
}

// Split creates a descendant of parent. It does not reassign speakers.
func Split(rng *rand.Rand, parent *Language, id ID, tick uint64, p Params) *Language {
	l := &Language{
		ID:           id,
		FamilyID:     parent.FamilyID,
		Generation:   parent.Generation + 1,
		ParentID:     parent.ID,
		Name:         daughterName(rng, parent.Name),
		Phonemes:     phonology.MutateInventory(rng, parent.Phonemes, p.Inventory),
		Lexicon:      make(map[string]*Word, len(parent.Lexicon)),
		Prestige:     clamp(parent.Prestige+(rng.Float64()-0.5)*p.PrestigeDrift*2, p.PrestigeFloor, p.PrestigeCeiling),
		Conservatism: clamp(parent.Conservatism+(rng.Float64()-0.5)*0.1, 0, 1),
		Rules:        parent.Rules.Clone(),
		CreatedAt:    tick,
		LastEvolved:  tick,
	}

	for _, meaning := range parent.Meanings() {
		if rng.Float64() >= p.InheritProbability {
			continue
		}
		w := *parent.Lexicon[meaning]
		w.Form = phonology.Shift(rng, w.Form, l.Phonemes)
		w.CreatedAt = tick
		w.ChangedAt = tick
		l.Lexicon[meaning] = &w
	}

	l.fillVocabulary(rng, tick, p)
	return l
}

// fillVocabulary adds fresh words for unused meanings until a random target
// in [VocabMin, VocabMax] is reached or the catalog runs out.
func (l *Language) fillVocabulary(rng *rand.Rand, tick uint64, p Params) {
	target := p.VocabMin
	if p.VocabMax > p.VocabMin {
		target += rng.Intn(p.VocabMax - p.VocabMin + 1)
	}
	unused := l.unusedMeanings()
	rng.Shuffle(len(unused), func(i, j int) { unused[i], unused[j] = unused[j], unused[i] })
	for _, meaning := range unused {
		if len(l.Lexicon) >= target {
			break
		}
		l.addWord(rng, meaning, tick)
	}
}

func (l *Language) addWord(rng *rand.Rand, meaning string, tick uint64) *Word {
	w := &Word{
		Form:      phonology.GenerateWord(rng, l.Phonemes),
		Meaning:   meaning,
		CreatedAt: tick,
		ChangedAt: tick,
	}
	l.Lexicon[meaning] = w
	return w
}

func (l *Language) unusedMeanings() []string {
	var out []string
	for _, m := range CoreVocabulary {
		if _, ok := l.Lexicon[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// Meanings returns the lexicon keys in sorted order.
func (l *Language) Meanings() []string {
	return slices.Sorted(maps.Keys(l.Lexicon))
}

// SampleWord returns the form of the alphabetically first meaning.
func (l *Language) SampleWord() string {
	var best string
	found := false
	for m := range l.Lexicon {
		if !found || m < best {
			best, found = m, true
		}
	}
	if !found {
		return ""
	}
	return l.Lexicon[best].Form
}

// BorrowedCount returns how many lexicon entries are loanwords.
func (l *Language) BorrowedCount() int {
	n := 0
	for _, w := range l.Lexicon {
		if w.Borrowed {
			n++
		}
	}
	return n
}

// Clone returns a deep copy sharing no mutable state with l.
func (l *Language) Clone() *Language {
	c := *l
	c.Phonemes = slices.Clone(l.Phonemes)
	c.Lexicon = make(map[string]*Word, len(l.Lexicon))
	for m, w := range l.Lexicon {
		cp := *w
		c.Lexicon[m] = &cp
	}
	c.Rules = l.Rules.Clone()
	return &c
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
