package language

import (
	"math/rand"
	"slices"

	"github.com/talgya/lingua-world/internal/phonology"
)

// Change summarizes what one evolution step did, for the event history.
type Change struct {
	InventoryChanged bool
	NewRule          *phonology.Rule
	WordsChanged     int
	Renamed          bool
	OldName          string
	NewWord          string // Meaning of a coined word, if any
}

// Evolve runs one internal evolution step. It is a no-op returning false
// when the language evolved less than EvolveCooldown ticks ago. contacts are
// neighbouring languages, most prestigious first.
func (l *Language) Evolve(rng *rand.Rand, tick uint64, p Params, contacts []*Language) (Change, bool) {
	var ch Change
	if tick-l.LastEvolved < p.EvolveCooldown {
		return ch, false
	}
	l.LastEvolved = tick
	openness := 1 - l.Conservatism*p.ConservatismFactor

	if rng.Float64() < 0.3*openness {
		next := phonology.MutateInventory(rng, l.Phonemes, p.Inventory)
		ch.InventoryChanged = !slices.Equal(next, l.Phonemes)
		l.Phonemes = next
	}

	if r, ok := l.Rules.Synthesize(rng, l.Phonemes, tick, p.SoundChangeChance*openness); ok {
		ch.NewRule = &r
	}

	if meanings := l.Meanings(); len(meanings) > 0 {
		n := min(p.WordsPerEvolution, max(1, len(meanings)/20))
		for i := 0; i < n; i++ {
			w := l.Lexicon[meanings[rng.Intn(len(meanings))]]
			form := l.Rules.Apply(rng, w.Form, tick, p.MaxChangesPerWord, l.Phonemes)
			if rng.Float64() < 0.2*openness {
				form = phonology.Substitute(rng, form, l.Phonemes)
			}
			if form != w.Form {
				w.Form = form
				w.ChangedAt = tick
				ch.WordsChanged++
			}
		}
	}

	drift := (rng.Float64() - 0.5) * p.PrestigeDrift
	if len(contacts) > 0 {
		sum := 0.0
		for _, c := range contacts {
			sum += c.Prestige
		}
		drift += (sum/float64(len(contacts)) - l.Prestige) * p.ContactInfluence * 0.1
	}
	l.Prestige = clamp(l.Prestige+drift, p.PrestigeFloor, p.PrestigeCeiling)

	if rng.Float64() < 0.05 {
		if name := EvolveName(l.Name); name != l.Name {
			ch.Renamed, ch.OldName = true, l.Name
			l.Name = name
		}
	}

	if len(l.Lexicon) < p.MaxVocab && rng.Float64() < 0.1 {
		if unused := l.unusedMeanings(); len(unused) > 0 {
			m := unused[rng.Intn(len(unused))]
			l.addWord(rng, m, tick)
			ch.NewWord = m
		}
	}
	return ch, true
}
