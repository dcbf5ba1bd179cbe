package engine

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/talgya/lingua-world/internal/language"
)

// Retention limits for event history.
const (
	MaxEvents          = 1000 // Global history
	MaxLanguageHistory = 32   // Per-language history
)

// EventKind categorizes events.
type EventKind string

const (
	EventFounded     EventKind = "founded"
	EventSplit       EventKind = "split"
	EventExtinction  EventKind = "extinction"
	EventSoundChange EventKind = "sound_change"
	EventRename      EventKind = "rename"
)

// Event is a notable occurrence in a language's life.
type Event struct {
	Tick        uint64      `json:"tick" db:"tick"`
	Kind        EventKind   `json:"kind" db:"kind"`
	LanguageID  language.ID `json:"language_id" db:"language_id"`
	OtherID     language.ID `json:"other_id,omitempty" db:"other_id"` // Daughter on split
	Description string      `json:"description" db:"description"`

	// Born is the new language as it stood at birth, set on founded and
	// split events. It is shared between copies and must not be modified.
	Born *LanguageRecord `json:"born,omitempty" db:"-"`
}

// EventSink receives the events of each committed tick, oldest first. The
// slice is owned by the sink. Events of a failed tick never reach it.
type EventSink func([]Event)

// String formats the event for the inspector and logs.
func (e Event) String() string {
	return fmt.Sprintf("tick %s: %s", humanize.Comma(int64(e.Tick)), e.Description)
}

// record queues an event for the current tick. Queued events are dropped
// if the tick fails.
func (s *Simulation) record(e Event) {
	s.pending = append(s.pending, e)
}

// flushEvents moves queued events into the global and per-language
// histories and hands them to the sink. History of extinct languages is
// dropped after its final event.
func (s *Simulation) flushEvents() {
	if s.sink != nil && len(s.pending) > 0 {
		s.sink(slices.Clone(s.pending))
	}
	for _, e := range s.pending {
		s.events = append(s.events, e)
		if e.Kind == EventExtinction {
			delete(s.history, e.LanguageID)
			continue
		}
		s.remember(e.LanguageID, e)
		if e.OtherID != 0 {
			s.remember(e.OtherID, e)
		}
	}
	// Trim old events to prevent unbounded growth.
	if len(s.events) > MaxEvents {
		s.events = s.events[len(s.events)-MaxEvents:]
	}
	s.pending = s.pending[:0]
}

func (s *Simulation) remember(id language.ID, e Event) {
	h := append(s.history[id], e)
	if len(h) > MaxLanguageHistory {
		h = h[len(h)-MaxLanguageHistory:]
	}
	s.history[id] = h
}
