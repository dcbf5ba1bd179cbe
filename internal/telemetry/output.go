// Package telemetry writes run output as CSV: a statistics row per report
// window, notable events, and the final language table.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gocarina/gocsv"

	"github.com/talgya/lingua-world/internal/config"
	"github.com/talgya/lingua-world/internal/engine"
)

// StatsRecord is one row of stats.csv.
type StatsRecord struct {
	Tick                uint64  `csv:"tick"`
	Languages           int     `csv:"languages"`
	Extinct             int     `csv:"extinct"`
	Created             int     `csv:"created"`
	NewThisTick         int     `csv:"new_this_tick"`
	Families            int     `csv:"families"`
	LargestLanguage     int     `csv:"largest_language"`
	SpeakingCommunities int     `csv:"speaking_communities"`
	TotalCommunities    int     `csv:"total_communities"`
	Acquisitions        int     `csv:"acquisitions"`
	Spreads             int     `csv:"spreads"`
	Borrows             int     `csv:"borrows"`
	Evolutions          int     `csv:"evolutions"`
	MeanPrestige        float64 `csv:"mean_prestige"`
	PrestigeStdDev      float64 `csv:"prestige_stddev"`
	MeanInventory       float64 `csv:"mean_inventory"`
	MeanVocabulary      float64 `csv:"mean_vocabulary"`
	TopLanguage         string  `csv:"top_language"`
}

// NewStatsRecord flattens engine statistics into a CSV row.
func NewStatsRecord(st engine.Stats) StatsRecord {
	r := StatsRecord{
		Tick:                st.Tick,
		Languages:           st.TotalLanguages,
		Extinct:             st.ExtinctLanguages,
		Created:             st.CreatedLanguages,
		NewThisTick:         st.NewThisTick,
		Families:            st.Families,
		LargestLanguage:     st.LargestLanguage,
		SpeakingCommunities: st.SpeakingCommunities,
		TotalCommunities:    st.TotalCommunities,
		Acquisitions:        st.Acquisitions,
		Spreads:             st.Spreads,
		Borrows:             st.Borrows,
		Evolutions:          st.Evolutions,
		MeanPrestige:        st.MeanPrestige,
		PrestigeStdDev:      st.PrestigeStdDev,
		MeanInventory:       st.MeanInventory,
		MeanVocabulary:      st.MeanVocabulary,
	}
	if len(st.TopLanguages) > 0 {
		r.TopLanguage = st.TopLanguages[0].Name
	}
	return r
}

// EventRecord is one row of events.csv.
type EventRecord struct {
	Tick        uint64 `csv:"tick"`
	Kind        string `csv:"kind"`
	LanguageID  uint64 `csv:"language_id"`
	OtherID     uint64 `csv:"other_id"`
	Description string `csv:"description"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	statsFile  *os.File
	eventsFile *os.File

	// Track if headers have been written
	statsHeaderWritten  bool
	eventsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om.statsFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		om.statsFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	om.eventsFile = f

	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats appends a statistics row to stats.csv.
func (om *OutputManager) WriteStats(st engine.Stats) error {
	if om == nil {
		return nil
	}
	records := []StatsRecord{NewStatsRecord(st)}
	if err := writeRows(om.statsFile, records, &om.statsHeaderWritten); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteEvents appends events to events.csv.
func (om *OutputManager) WriteEvents(events []engine.Event) error {
	if om == nil || len(events) == 0 {
		return nil
	}
	records := make([]EventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, EventRecord{
			Tick:        e.Tick,
			Kind:        string(e.Kind),
			LanguageID:  e.LanguageID,
			OtherID:     e.OtherID,
			Description: e.Description,
		})
	}
	if err := writeRows(om.eventsFile, records, &om.eventsHeaderWritten); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteLanguages writes the snapshot's language table to languages.csv,
// most widespread first.
func (om *OutputManager) WriteLanguages(snap engine.Snapshot) error {
	if om == nil {
		return nil
	}
	records := make([]engine.LanguageRecord, 0, len(snap.Languages))
	for _, l := range snap.Languages {
		records = append(records, l)
	}
	slices.SortFunc(records, func(a, b engine.LanguageRecord) int {
		if a.Speakers != b.Speakers {
			return b.Speakers - a.Speakers
		}
		return int(a.ID) - int(b.ID)
	})

	f, err := os.Create(filepath.Join(om.dir, "languages.csv"))
	if err != nil {
		return fmt.Errorf("creating languages.csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing languages: %w", err)
	}
	return nil
}

// writeRows marshals records, including headers only on the first write.
func writeRows[T any](f *os.File, records []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.statsFile, om.eventsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
