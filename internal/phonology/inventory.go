package phonology

import (
	"math/rand"
	"slices"
)

// Bounds constrains inventory size and vowel count.
type Bounds struct {
	Min       int // Smallest allowed inventory
	Max       int // Largest allowed inventory
	MinVowels int // Distinct vowels every inventory keeps
}

// vowelShare is the chance that a filler phoneme is drawn from the vowels.
const vowelShare = 0.35

// GenerateInventory builds a fresh inventory: MinVowels distinct vowels,
// then a probabilistic mix of vowels and consonants up to a random target
// size in [Min, Max].
func GenerateInventory(rng *rand.Rand, b Bounds) []string {
	vowels := AllVowels()
	consonants := AllConsonants()
	rng.Shuffle(len(vowels), func(i, j int) { vowels[i], vowels[j] = vowels[j], vowels[i] })

	nv := min(b.MinVowels, len(vowels))
	inv := make([]string, 0, b.Max)
	inv = append(inv, vowels[:nv]...)
	vowels = vowels[nv:]

	target := b.Min
	if b.Max > b.Min {
		target += rng.Intn(b.Max - b.Min + 1)
	}
	target = min(target, CatalogSize())

	for len(inv) < target {
		pool := &consonants
		if (rng.Float64() < vowelShare && len(vowels) > 0) || len(consonants) == 0 {
			pool = &vowels
		}
		i := rng.Intn(len(*pool))
		inv = append(inv, (*pool)[i])
		*pool = slices.Delete(*pool, i, i+1)
	}

	SortInventory(inv)
	return inv
}

// MutateInventory returns a copy of inv with one phoneme added, removed, or
// swapped. The result stays within b; an operation that would violate the
// bounds leaves the inventory unchanged.
func MutateInventory(rng *rand.Rand, inv []string, b Bounds) []string {
	out := slices.Clone(inv)
	switch rng.Intn(3) {
	case 0:
		if len(out) >= b.Max {
			return out
		}
		absent := missing(out, nil)
		if len(absent) == 0 {
			return out
		}
		out = append(out, absent[rng.Intn(len(absent))])
	case 1:
		if len(out) <= b.Min {
			return out
		}
		idx := removable(out, b)
		if len(idx) == 0 {
			return out
		}
		i := idx[rng.Intn(len(idx))]
		out = slices.Delete(out, i, i+1)
	default:
		idx := removable(out, b)
		if len(idx) == 0 {
			return out
		}
		i := idx[rng.Intn(len(idx))]
		sameClass := IsVowel(out[i])
		absent := missing(out, func(s string) bool { return IsVowel(s) == sameClass })
		if len(absent) == 0 {
			return out
		}
		out[i] = absent[rng.Intn(len(absent))]
	}
	SortInventory(out)
	return out
}

// missing lists catalog phonemes not in inv, optionally filtered.
func missing(inv []string, keep func(string) bool) []string {
	var out []string
	for _, p := range catalog {
		if slices.Contains(inv, p.Symbol) {
			continue
		}
		if keep != nil && !keep(p.Symbol) {
			continue
		}
		out = append(out, p.Symbol)
	}
	return out
}

// removable lists indexes whose removal keeps the vowel floor.
func removable(inv []string, b Bounds) []int {
	vowels := len(Vowels(inv))
	var idx []int
	for i, s := range inv {
		if IsVowel(s) && vowels <= b.MinVowels {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// Vowels returns the syllabic members of inv in order.
func Vowels(inv []string) []string {
	var out []string
	for _, s := range inv {
		if IsVowel(s) {
			out = append(out, s)
		}
	}
	return out
}

// Consonants returns the non-syllabic members of inv in order.
func Consonants(inv []string) []string {
	var out []string
	for _, s := range inv {
		if !IsVowel(s) {
			out = append(out, s)
		}
	}
	return out
}
