package language

import (
	"github.com/agnivade/levenshtein"
)

// Similarity compares the forms two languages use for their shared meanings.
// It returns the mean of 1 - editDistance/longerLength over those meanings
// (1 is identical) and how many meanings were compared.
func Similarity(a, b *Language) (float64, int) {
	total, shared := 0.0, 0
	for _, m := range a.Meanings() {
		wa := a.Lexicon[m]
		wb, ok := b.Lexicon[m]
		if !ok {
			continue
		}
		shared++
		longer := max(len([]rune(wa.Form)), len([]rune(wb.Form)))
		if longer == 0 {
			total++
			continue
		}
		d := levenshtein.ComputeDistance(wa.Form, wb.Form)
		total += 1 - float64(d)/float64(longer)
	}
	if shared == 0 {
		return 0, 0
	}
	return total / float64(shared), shared
}
