package engine

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/lingua-world/internal/language"
)

// RankedLanguage is one entry of the top-K table.
type RankedLanguage struct {
	ID       language.ID `json:"id" csv:"id"`
	Name     string      `json:"name" csv:"name"`
	Speakers int         `json:"speakers" csv:"speakers"`
}

// Stats tracks aggregate world statistics after the latest tick.
type Stats struct {
	Tick uint64 `json:"tick"`

	TotalLanguages   int `json:"total_languages"`
	ExtinctLanguages int `json:"extinct_languages"` // Cumulative
	CreatedLanguages int `json:"created_languages"` // Cumulative, via split
	NewThisTick      int `json:"new_this_tick"`
	Families         int `json:"families"`
	LargestLanguage  int `json:"largest_language"` // Speaker count of the most widespread language

	TotalCommunities    int `json:"total_communities"`
	SpeakingCommunities int `json:"speaking_communities"`

	Acquisitions int `json:"acquisitions"` // This tick
	Spreads      int `json:"spreads"`
	Borrows      int `json:"borrows"`
	Evolutions   int `json:"evolutions"`

	MeanPrestige   float64 `json:"mean_prestige"`
	PrestigeStdDev float64 `json:"prestige_stddev"`
	MeanInventory  float64 `json:"mean_inventory"`
	MeanVocabulary float64 `json:"mean_vocabulary"`

	TopLanguages  []RankedLanguage    `json:"top_languages"`
	SpeakerCounts map[language.ID]int `json:"speaker_counts"`
}

func (st Stats) clone() Stats {
	st.TopLanguages = slices.Clone(st.TopLanguages)
	st.SpeakerCounts = maps.Clone(st.SpeakerCounts)
	return st
}

func (s *Simulation) updateStats() {
	st := Stats{
		Tick:             s.tick,
		TotalLanguages:   len(s.languages),
		ExtinctLanguages: s.extinct,
		CreatedLanguages: s.created,
		NewThisTick:      s.counters.NewLanguages,
		TotalCommunities: len(s.communities),
		Acquisitions:     s.counters.Acquisitions,
		Spreads:          s.counters.Spreads,
		Borrows:          s.counters.Borrows,
		Evolutions:       s.counters.Evolutions,
		SpeakerCounts:    make(map[language.ID]int, len(s.languages)),
	}

	for i := range s.communities {
		if id := s.communities[i].LanguageID; id != 0 {
			st.SpeakingCommunities++
			st.SpeakerCounts[id]++
		}
	}

	ids := slices.Sorted(maps.Keys(s.languages))
	families := make(map[language.ID]bool)
	prestige := make([]float64, 0, len(ids))
	inventory := make([]float64, 0, len(ids))
	vocabulary := make([]float64, 0, len(ids))
	for _, id := range ids {
		l := s.languages[id]
		families[l.FamilyID] = true
		prestige = append(prestige, l.Prestige)
		inventory = append(inventory, float64(len(l.Phonemes)))
		vocabulary = append(vocabulary, float64(len(l.Lexicon)))
		st.LargestLanguage = max(st.LargestLanguage, st.SpeakerCounts[id])
		st.TopLanguages = append(st.TopLanguages, RankedLanguage{
			ID:       id,
			Name:     l.Name,
			Speakers: st.SpeakerCounts[id],
		})
	}
	st.Families = len(families)

	if len(ids) > 0 {
		st.MeanInventory = stat.Mean(inventory, nil)
		st.MeanVocabulary = stat.Mean(vocabulary, nil)
		st.MeanPrestige = stat.Mean(prestige, nil)
	}
	if len(ids) > 1 {
		_, st.PrestigeStdDev = stat.MeanStdDev(prestige, nil)
	}

	// Stable on id order, so equal speaker counts stay sorted by id.
	slices.SortStableFunc(st.TopLanguages, func(a, b RankedLanguage) int {
		return b.Speakers - a.Speakers
	})
	if k := s.cfg.Simulation.TopK; len(st.TopLanguages) > k {
		st.TopLanguages = st.TopLanguages[:k]
	}

	s.stats = st
}
