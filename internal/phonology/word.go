package phonology

import (
	"math/rand"
	"strings"
)

// FallbackVowel is inserted when a word has no syllabic segment and the
// inventory offers no vowel to choose from.
const FallbackVowel = "a"

// Segments splits a word form into phoneme symbols.
func Segments(form string) []string {
	out := make([]string, 0, len(form))
	for _, r := range form {
		out = append(out, string(r))
	}
	return out
}

// Join is the inverse of Segments.
func Join(segs []string) string {
	return strings.Join(segs, "")
}

// HasVowel reports whether form contains a syllabic phoneme.
func HasVowel(form string) bool {
	for _, r := range form {
		if IsVowel(string(r)) {
			return true
		}
	}
	return false
}

// EnsureVowel returns form unchanged if it has a syllabic phoneme. Otherwise
// a vowel from inventory is inserted at the midpoint.
func EnsureVowel(rng *rand.Rand, form string, inventory []string) string {
	if HasVowel(form) {
		return form
	}
	v := FallbackVowel
	if vs := Vowels(inventory); len(vs) > 0 {
		v = vs[rng.Intn(len(vs))]
	}
	segs := Segments(form)
	mid := len(segs) / 2
	segs = append(segs[:mid], append([]string{v}, segs[mid:]...)...)
	return Join(segs)
}

// GenerateWord builds a one- or two-syllable (C)V(C) form from inventory.
func GenerateWord(rng *rand.Rand, inventory []string) string {
	vowels := Vowels(inventory)
	consonants := Consonants(inventory)
	if len(vowels) == 0 {
		vowels = []string{FallbackVowel}
	}

	syllables := 1
	if rng.Float64() < 0.4 {
		syllables = 2
	}

	var b strings.Builder
	for i := 0; i < syllables; i++ {
		if len(consonants) > 0 && rng.Float64() < 0.8 {
			b.WriteString(consonants[rng.Intn(len(consonants))])
		}
		b.WriteString(vowels[rng.Intn(len(vowels))])
		if len(consonants) > 0 && rng.Float64() < 0.3 {
			b.WriteString(consonants[rng.Intn(len(consonants))])
		}
	}
	return b.String()
}

// Substitute replaces one random segment with another inventory phoneme of
// the same class.
func Substitute(rng *rand.Rand, form string, inventory []string) string {
	segs := Segments(form)
	if len(segs) == 0 {
		return EnsureVowel(rng, form, inventory)
	}
	i := rng.Intn(len(segs))
	pool := Consonants(inventory)
	if IsVowel(segs[i]) {
		pool = Vowels(inventory)
	}
	if len(pool) > 0 {
		segs[i] = pool[rng.Intn(len(pool))]
	}
	return EnsureVowel(rng, Join(segs), inventory)
}

// Shift applies one context-free sound shift from the template catalog to
// every matching segment. Used when a word is inherited by a daughter.
func Shift(rng *rand.Rand, form string, inventory []string) string {
	t := templates[rng.Intn(len(templates))]
	segs := Segments(form)
	out := segs[:0]
	for _, s := range segs {
		if s != t.From {
			out = append(out, s)
			continue
		}
		if t.To != Deletion {
			out = append(out, t.To)
		}
	}
	return EnsureVowel(rng, Join(out), inventory)
}
