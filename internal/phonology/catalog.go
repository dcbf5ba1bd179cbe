// Package phonology provides the phoneme catalog, inventory and word helpers,
// and the per-language sound-change rule engine.
//
// Every phoneme in the catalog is a single rune, so a word form can be
// segmented by iterating its runes.
package phonology

import (
	"math/bits"
	"sort"
)

// Feature is a bitmask of distinctive features.
type Feature uint32

const (
	Syllabic Feature = 1 << iota
	Consonantal
	Sonorant
	Voice
	Nasal
	Continuant
	Lateral
	Strident
	Labial
	Coronal
	Dorsal
	Pharyngeal
	High
	Low
	Front
	Back
	Round
	Tense
)

// Phoneme is a catalog entry.
type Phoneme struct {
	Symbol   string  `json:"symbol"`
	Features Feature `json:"features"`
}

// Syllabic reports whether the phoneme can carry a syllable nucleus.
func (p Phoneme) Syllabic() bool {
	return p.Features&Syllabic != 0
}

const (
	vowel = Syllabic | Sonorant | Voice | Continuant
	stop  = Consonantal
	fric  = Consonantal | Continuant
	nasal = Consonantal | Sonorant | Voice | Nasal
	glide = Sonorant | Voice | Continuant
)

// catalog is ordered vowels first, then consonants roughly by place.
var catalog = []Phoneme{
	{"i", vowel | High | Front | Tense},
	{"ɪ", vowel | High | Front},
	{"y", vowel | High | Front | Round | Tense},
	{"ɨ", vowel | High | Tense},
	{"ʉ", vowel | High | Round | Tense},
	{"ɯ", vowel | High | Back | Tense},
	{"u", vowel | High | Back | Round | Tense},
	{"ʊ", vowel | High | Back | Round},
	{"e", vowel | Front | Tense},
	{"ø", vowel | Front | Round | Tense},
	{"ə", vowel},
	{"ɤ", vowel | Back | Tense},
	{"o", vowel | Back | Round | Tense},
	{"ɛ", vowel | Front},
	{"œ", vowel | Front | Round},
	{"ʌ", vowel | Back},
	{"ɔ", vowel | Back | Round},
	{"æ", vowel | Low | Front},
	{"a", vowel | Low},
	{"ɑ", vowel | Low | Back},

	{"p", stop | Labial},
	{"b", stop | Labial | Voice},
	{"t", stop | Coronal},
	{"d", stop | Coronal | Voice},
	{"c", stop | Dorsal | High | Front},
	{"ɟ", stop | Dorsal | High | Front | Voice},
	{"k", stop | Dorsal | High | Back},
	{"g", stop | Dorsal | High | Back | Voice},
	{"q", stop | Dorsal | Back},
	{"ɢ", stop | Dorsal | Back | Voice},
	{"ʔ", stop | Pharyngeal},
	{"ɸ", fric | Labial},
	{"β", fric | Labial | Voice},
	{"f", fric | Labial | Strident},
	{"v", fric | Labial | Strident | Voice},
	{"θ", fric | Coronal},
	{"ð", fric | Coronal | Voice},
	{"s", fric | Coronal | Strident},
	{"z", fric | Coronal | Strident | Voice},
	{"ʃ", fric | Coronal | Strident | High},
	{"ʒ", fric | Coronal | Strident | High | Voice},
	{"ç", fric | Dorsal | High | Front},
	{"ʝ", fric | Dorsal | High | Front | Voice},
	{"x", fric | Dorsal | High | Back},
	{"ɣ", fric | Dorsal | High | Back | Voice},
	{"χ", fric | Dorsal | Back},
	{"ʁ", fric | Dorsal | Back | Voice},
	{"ħ", fric | Pharyngeal},
	{"ʕ", fric | Pharyngeal | Voice},
	{"h", fric | Low},
	{"m", nasal | Labial},
	{"n", nasal | Coronal},
	{"ɳ", nasal | Coronal | Back},
	{"ɲ", nasal | Dorsal | High | Front},
	{"ŋ", nasal | Dorsal | High | Back},
	{"l", Consonantal | Sonorant | Voice | Continuant | Lateral | Coronal},
	{"ɬ", fric | Lateral | Coronal},
	{"ʎ", Consonantal | Sonorant | Voice | Continuant | Lateral | Dorsal | High | Front},
	{"r", Consonantal | Sonorant | Voice | Coronal | Tense},
	{"ɾ", Consonantal | Sonorant | Voice | Coronal},
	{"ɹ", glide | Coronal},
	{"j", glide | Dorsal | High | Front},
	{"w", glide | Labial | Dorsal | High | Back | Round},
	{"ʋ", glide | Labial},
	{"ɰ", glide | Dorsal | High | Back},
}

var bySymbol = func() map[string]Phoneme {
	m := make(map[string]Phoneme, len(catalog))
	for _, p := range catalog {
		m[p.Symbol] = p
	}
	return m
}()

var order = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, p := range catalog {
		m[p.Symbol] = i
	}
	return m
}()

// Catalog returns a copy of every known phoneme.
func Catalog() []Phoneme {
	out := make([]Phoneme, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogSize is the number of phonemes in the catalog.
func CatalogSize() int { return len(catalog) }

// Lookup returns the catalog entry for a symbol.
func Lookup(symbol string) (Phoneme, bool) {
	p, ok := bySymbol[symbol]
	return p, ok
}

// IsVowel reports whether symbol is a syllabic catalog phoneme.
func IsVowel(symbol string) bool {
	p, ok := bySymbol[symbol]
	return ok && p.Syllabic()
}

// IsConsonant reports whether symbol is a non-syllabic catalog phoneme.
func IsConsonant(symbol string) bool {
	p, ok := bySymbol[symbol]
	return ok && !p.Syllabic()
}

// AllVowels returns the vowel symbols in catalog order.
func AllVowels() []string {
	var out []string
	for _, p := range catalog {
		if p.Syllabic() {
			out = append(out, p.Symbol)
		}
	}
	return out
}

// AllConsonants returns the consonant symbols in catalog order.
func AllConsonants() []string {
	var out []string
	for _, p := range catalog {
		if !p.Syllabic() {
			out = append(out, p.Symbol)
		}
	}
	return out
}

// FeatureDistance counts the distinctive features on which a and b differ.
// Unknown symbols are maximally distant.
func FeatureDistance(a, b string) int {
	pa, okA := bySymbol[a]
	pb, okB := bySymbol[b]
	if !okA || !okB {
		return bits.Len32(uint32(Tense))
	}
	return bits.OnesCount32(uint32(pa.Features ^ pb.Features))
}

// SortInventory orders symbols by catalog position. Unknown symbols sort last.
func SortInventory(inv []string) {
	sort.SliceStable(inv, func(i, j int) bool {
		oi, ok := order[inv[i]]
		if !ok {
			oi = len(catalog)
		}
		oj, ok := order[inv[j]]
		if !ok {
			oj = len(catalog)
		}
		return oi < oj
	})
}
