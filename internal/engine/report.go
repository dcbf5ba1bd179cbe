package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// LogReport logs a summary of the latest statistics and the events since
// the previous report.
func (s *Simulation) LogReport(since uint64) {
	st := s.stats
	top := "none"
	if len(st.TopLanguages) > 0 {
		t := st.TopLanguages[0]
		top = fmt.Sprintf("%s (%s communities)", t.Name, humanize.Comma(int64(t.Speakers)))
	}

	events := s.EventsSince(since)
	counts := make(map[EventKind]int)
	for _, e := range events {
		counts[e.Kind]++
	}

	slog.Info("simulation report",
		"tick", st.Tick,
		"languages", st.TotalLanguages,
		"families", st.Families,
		"extinct", st.ExtinctLanguages,
		"created", st.CreatedLanguages,
		"speaking", fmt.Sprintf("%s/%s", humanize.Comma(int64(st.SpeakingCommunities)), humanize.Comma(int64(st.TotalCommunities))),
		"top", top,
		"mean_prestige", fmt.Sprintf("%.3f", st.MeanPrestige),
		"mean_inventory", fmt.Sprintf("%.1f", st.MeanInventory),
		"events_split", counts[EventSplit],
		"events_extinction", counts[EventExtinction],
		"events_sound_change", counts[EventSoundChange],
		"events_rename", counts[EventRename],
	)

	// Log recent notable events (splits and extinctions).
	recent := events
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}
	for _, e := range recent {
		if e.Kind == EventSplit || e.Kind == EventExtinction {
			slog.Info("event", "kind", e.Kind, "tick", e.Tick, "description", e.Description)
		}
	}
}
