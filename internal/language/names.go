package language

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

var nameSyllables = []string{
	"ka", "ti", "ra", "po", "mi", "su", "no", "ze",
	"li", "va", "do", "gu", "hi", "jo", "ta", "ne",
}

// GenerateName builds a two- or three-syllable capitalized name.
func GenerateName(rng *rand.Rand) string {
	n := 2 + rng.Intn(2)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(nameSyllables[rng.Intn(len(nameSyllables))])
	}
	return capitalize(b.String())
}

var nameShift = map[rune]rune{'a': 'e', 'i': 'e', 'o': 'u', 'u': 'o'}

// EvolveName applies the fixed vowel shift a,i>e and o<>u to a name.
func EvolveName(name string) string {
	return strings.Map(func(r rune) rune {
		lower := unicode.ToLower(r)
		if to, ok := nameShift[lower]; ok {
			if unicode.IsUpper(r) {
				return unicode.ToUpper(to)
			}
			return to
		}
		return r
	}, name)
}

// maxNameSyllables bounds names along deep lineages.
const maxNameSyllables = 4

// daughterName derives a descendant's name from its parent's, sometimes
// with a new final syllable. At the length cap the last syllable is
// replaced rather than extended.
func daughterName(rng *rand.Rand, parent string) string {
	name := EvolveName(parent)
	if rng.Float64() < 0.5 {
		if syllables := len(name) / 2; syllables >= maxNameSyllables {
			name = name[:2*(maxNameSyllables-1)]
		}
		name += nameSyllables[rng.Intn(len(nameSyllables))]
	}
	return name
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
