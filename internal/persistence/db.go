// Package persistence archives simulation runs to SQLite: run metadata,
// per-tick statistics, language lineage, and notable events.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/lingua-world/internal/engine"
	"github.com/talgya/lingua-world/internal/language"
)

// DB wraps a SQLite connection for run archives.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		communities INTEGER NOT NULL,
		config_yaml TEXT NOT NULL,
		started_at TEXT NOT NULL,
		last_tick INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		total_languages INTEGER NOT NULL,
		extinct_languages INTEGER NOT NULL,
		created_languages INTEGER NOT NULL,
		families INTEGER NOT NULL,
		speaking_communities INTEGER NOT NULL,
		largest_language INTEGER NOT NULL,
		mean_prestige REAL NOT NULL,
		prestige_stddev REAL NOT NULL,
		mean_inventory REAL NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS languages (
		run_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		family_id INTEGER NOT NULL,
		parent_id INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		name TEXT NOT NULL,
		phonemes_json TEXT NOT NULL,
		vocabulary INTEGER NOT NULL,
		borrowed INTEGER NOT NULL,
		prestige REAL NOT NULL,
		speakers INTEGER NOT NULL,
		sample_word TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		extinct_at INTEGER,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		language_id INTEGER NOT NULL,
		other_id INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_languages_family ON languages(run_id, family_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is the archived metadata of one world.
type Run struct {
	ID          string `db:"id"`
	Seed        int64  `db:"seed"`
	Width       int    `db:"width"`
	Height      int    `db:"height"`
	Communities int    `db:"communities"`
	ConfigYAML  string `db:"config_yaml"`
	StartedAt   string `db:"started_at"` // RFC 3339, UTC
	LastTick    uint64 `db:"last_tick"`
}

// SaveRun records a new run, or refreshes its metadata.
func (db *DB) SaveRun(r Run) error {
	_, err := db.conn.Exec(`INSERT INTO runs
		(id, seed, width, height, communities, config_yaml, started_at, last_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_tick = excluded.last_tick`,
		r.ID, r.Seed, r.Width, r.Height, r.Communities, r.ConfigYAML,
		r.StartedAt, r.LastTick,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

// GetRun loads a run's metadata.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	if err := db.conn.Get(&r, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// StatsRow is one archived statistics sample.
type StatsRow struct {
	RunID               string  `db:"run_id"`
	Tick                uint64  `db:"tick"`
	TotalLanguages      int     `db:"total_languages"`
	ExtinctLanguages    int     `db:"extinct_languages"`
	CreatedLanguages    int     `db:"created_languages"`
	Families            int     `db:"families"`
	SpeakingCommunities int     `db:"speaking_communities"`
	LargestLanguage     int     `db:"largest_language"`
	MeanPrestige        float64 `db:"mean_prestige"`
	PrestigeStdDev      float64 `db:"prestige_stddev"`
	MeanInventory       float64 `db:"mean_inventory"`
}

// SaveStats appends a statistics sample for the run.
func (db *DB) SaveStats(runID string, st engine.Stats) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO stats
		(run_id, tick, total_languages, extinct_languages, created_languages, families,
		 speaking_communities, largest_language, mean_prestige, prestige_stddev, mean_inventory)
		VALUES (:run_id, :tick, :total_languages, :extinct_languages, :created_languages, :families,
		 :speaking_communities, :largest_language, :mean_prestige, :prestige_stddev, :mean_inventory)`,
		StatsRow{
			RunID:               runID,
			Tick:                st.Tick,
			TotalLanguages:      st.TotalLanguages,
			ExtinctLanguages:    st.ExtinctLanguages,
			CreatedLanguages:    st.CreatedLanguages,
			Families:            st.Families,
			SpeakingCommunities: st.SpeakingCommunities,
			LargestLanguage:     st.LargestLanguage,
			MeanPrestige:        st.MeanPrestige,
			PrestigeStdDev:      st.PrestigeStdDev,
			MeanInventory:       st.MeanInventory,
		})
	if err != nil {
		return fmt.Errorf("save stats at tick %d: %w", st.Tick, err)
	}
	return nil
}

// StatsHistory returns the run's statistics samples in tick order.
func (db *DB) StatsHistory(runID string) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, "SELECT * FROM stats WHERE run_id = ? ORDER BY tick", runID)
	return rows, err
}

// LanguageRow is one archived language. ExtinctAt is nil while the
// language is alive.
type LanguageRow struct {
	RunID        string      `db:"run_id"`
	ID           language.ID `db:"id"`
	FamilyID     language.ID `db:"family_id"`
	ParentID     language.ID `db:"parent_id"`
	Generation   int         `db:"generation"`
	Name         string      `db:"name"`
	PhonemesJSON string      `db:"phonemes_json"`
	Vocabulary   int         `db:"vocabulary"`
	Borrowed     int         `db:"borrowed"`
	Prestige     float64     `db:"prestige"`
	Speakers     int         `db:"speakers"`
	SampleWord   string      `db:"sample_word"`
	CreatedAt    uint64      `db:"created_at"`
	ExtinctAt    *uint64     `db:"extinct_at"`
}

// Phonemes decodes the archived inventory.
func (r LanguageRow) Phonemes() []string {
	var out []string
	_ = json.Unmarshal([]byte(r.PhonemesJSON), &out)
	return out
}

const insertLanguage = `INSERT INTO languages
	(run_id, id, family_id, parent_id, generation, name, phonemes_json,
	 vocabulary, borrowed, prestige, speakers, sample_word, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func languageArgs(runID string, l engine.LanguageRecord) []any {
	phonemesJSON, _ := json.Marshal(l.Phonemes)
	return []any{
		runID, l.ID, l.FamilyID, l.ParentID, l.Generation, l.Name, string(phonemesJSON),
		l.Vocabulary, l.Borrowed, l.Prestige, l.Speakers, l.SampleWord, l.CreatedAt,
	}
}

// SaveLanguages upserts the living languages of a snapshot. Languages that
// are no longer alive keep their last archived state.
func (db *DB) SaveLanguages(runID string, langs map[language.ID]engine.LanguageRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(insertLanguage + `
		ON CONFLICT(run_id, id) DO UPDATE SET
			name = excluded.name,
			phonemes_json = excluded.phonemes_json,
			vocabulary = excluded.vocabulary,
			borrowed = excluded.borrowed,
			prestige = excluded.prestige,
			speakers = excluded.speakers,
			sample_word = excluded.sample_word`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range langs {
		if _, err := stmt.Exec(languageArgs(runID, l)...); err != nil {
			return fmt.Errorf("upsert language %d: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// Lineage returns every archived language of the run in id order.
func (db *DB) Lineage(runID string) ([]LanguageRow, error) {
	var rows []LanguageRow
	err := db.conn.Select(&rows, "SELECT * FROM languages WHERE run_id = ? ORDER BY id", runID)
	return rows, err
}

// SaveEvents appends events to the database and keeps the lineage table in
// step with them: a founded or split event inserts the born language unless
// it is already archived, and an extinction stamps its row.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, kind, language_id, other_id, description) VALUES (?, ?, ?, ?, ?, ?)",
			runID, e.Tick, e.Kind, e.LanguageID, e.OtherID, e.Description,
		)
		if err != nil {
			return err
		}
		if e.Born != nil {
			_, err := tx.Exec(insertLanguage+" ON CONFLICT(run_id, id) DO NOTHING", languageArgs(runID, *e.Born)...)
			if err != nil {
				return fmt.Errorf("insert language %d: %w", e.Born.ID, err)
			}
		}
		if e.Kind == engine.EventExtinction {
			_, err := tx.Exec(
				"UPDATE languages SET extinct_at = ?, speakers = 0 WHERE run_id = ? AND id = ?",
				e.Tick, runID, e.LanguageID,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// RecentEvents returns the run's most recent N events, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, kind, language_id, other_id, description FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in database metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// Archiver saves a simulation incrementally. Each Save writes the latest
// statistics, the living languages, and the events committed since the
// previous Save, as collected by an engine.EventSink.
type Archiver struct {
	db    *DB
	runID string
}

// NewArchiver records the run of sim and returns an archiver for it.
func NewArchiver(db *DB, sim *engine.Simulation) (*Archiver, error) {
	cfgYAML, err := sim.Config().YAML()
	if err != nil {
		return nil, err
	}
	snap := sim.Snapshot()
	run := Run{
		ID:          sim.RunID().String(),
		Seed:        sim.Seed(),
		Width:       snap.World.Width,
		Height:      snap.World.Height,
		Communities: len(snap.Communities),
		ConfigYAML:  string(cfgYAML),
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := db.SaveRun(run); err != nil {
		return nil, err
	}
	if err := db.SaveMeta("last_run", run.ID); err != nil {
		return nil, fmt.Errorf("save meta: %w", err)
	}
	return &Archiver{db: db, runID: run.ID}, nil
}

// RunID returns the archived run id.
func (a *Archiver) RunID() string { return a.runID }

// Save archives the simulation's current state together with events, the
// events committed since the previous Save.
func (a *Archiver) Save(sim *engine.Simulation, events []engine.Event) error {
	snap := sim.Snapshot()

	// Languages first, so extinction events can stamp them.
	if err := a.db.SaveLanguages(a.runID, snap.Languages); err != nil {
		return fmt.Errorf("save languages: %w", err)
	}
	if err := a.db.SaveEvents(a.runID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := a.db.SaveStats(a.runID, snap.Stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if _, err := a.db.conn.Exec("UPDATE runs SET last_tick = ? WHERE id = ?", snap.Tick, a.runID); err != nil {
		return fmt.Errorf("save run tick: %w", err)
	}

	slog.Debug("run archived", "run", a.runID, "tick", snap.Tick, "languages", len(snap.Languages), "events", len(events))
	return nil
}
