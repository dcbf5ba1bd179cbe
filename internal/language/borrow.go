package language

import (
	"math/rand"
	"slices"

	"github.com/talgya/lingua-world/internal/phonology"
)

// Borrow copies source's word for meaning into l, replacing every phoneme
// foreign to l's inventory with a random native phoneme of the same class.
// It returns false, leaving l untouched, when source lacks the meaning.
func (l *Language) Borrow(rng *rand.Rand, source *Language, meaning string, tick uint64) bool {
	sw, ok := source.Lexicon[meaning]
	if !ok {
		return false
	}
	l.Lexicon[meaning] = &Word{
		Form:      l.Adapt(rng, sw.Form),
		Meaning:   meaning,
		Borrowed:  true,
		Source:    source.ID,
		CreatedAt: tick,
		ChangedAt: tick,
	}
	return true
}

// Adapt nativizes a foreign form to l's inventory.
func (l *Language) Adapt(rng *rand.Rand, form string) string {
	vowels := phonology.Vowels(l.Phonemes)
	consonants := phonology.Consonants(l.Phonemes)
	segs := phonology.Segments(form)
	for i, s := range segs {
		if slices.Contains(l.Phonemes, s) {
			continue
		}
		pool := consonants
		if phonology.IsVowel(s) {
			pool = vowels
		}
		if len(pool) > 0 {
			segs[i] = pool[rng.Intn(len(pool))]
		}
	}
	return phonology.EnsureVowel(rng, phonology.Join(segs), l.Phonemes)
}
