package config

import (
	"sort"

	"github.com/talgya/lingua-world/internal/language"
	"github.com/talgya/lingua-world/internal/phonology"
	"github.com/talgya/lingua-world/internal/world"
)

// GenConfig maps the world section onto terrain generation parameters.
func (c Config) GenConfig() world.GenConfig {
	w := c.World
	return world.GenConfig{
		Width:            w.Width,
		Height:           w.Height,
		LandProbability:  w.LandProbability,
		IslandBias:       w.IslandBias,
		SmoothingPasses:  w.SmoothingPasses,
		SurviveThreshold: w.SurviveThreshold,
		BirthThreshold:   w.BirthThreshold,
		EdgeIsLand:       w.EdgeIsLand,
		NoiseRoughness:   w.NoiseRoughness,
		NoiseScale:       w.NoiseScale,
	}
}

// LanguageParams maps the language section onto language.Params.
func (c Config) LanguageParams() language.Params {
	l := c.Language
	return language.Params{
		Inventory: phonology.Bounds{
			Min:       l.MinPhonemes,
			Max:       l.MaxPhonemes,
			MinVowels: l.MinVowels,
		},
		VocabMin:           l.VocabMin,
		VocabMax:           l.VocabMax,
		MaxVocab:           l.MaxVocab,
		InheritProbability: l.InheritanceProbability,
		PrestigeFloor:      l.PrestigeFloor,
		PrestigeCeiling:    l.PrestigeCeiling,
		PrestigeDrift:      l.PrestigeDrift,
		ConservatismMax:    l.ConservatismMax,
		ConservatismFactor: l.ConservatismFactor,
		ContactInfluence:   l.ContactInfluence,
		SoundChangeChance:  l.SoundChangeProbability,
		MaxRules:           l.MaxRules,
		MaxChangesPerWord:  l.MaxChangesPerWord,
		WordsPerEvolution:  l.WordsPerEvolution,
		EvolveCooldown:     uint64(l.EvolveCooldown),
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
