// Package config provides configuration loading and validation for the
// simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/lingua-world/internal/phonology"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxDimension bounds grid width and height.
const MaxDimension = 500

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Seeding policies for communities left over after the starter languages
// are placed.
const (
	SeedRandom       = "random"        // Uniform random seeded language
	SeedSparse       = "sparse"        // Stay silent until acquisition
	SeedPerCommunity = "per_community" // Every community gets its own root
)

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Language   LanguageConfig   `yaml:"language"`
	Run        RunConfig        `yaml:"run"`
}

// WorldConfig holds terrain generation parameters.
type WorldConfig struct {
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	LandProbability  float64 `yaml:"land_probability"`
	IslandBias       float64 `yaml:"island_bias"`
	SmoothingPasses  int     `yaml:"smoothing_passes"`
	SurviveThreshold int     `yaml:"survive_threshold"` // Land neighbours to stay land
	BirthThreshold   int     `yaml:"birth_threshold"`   // Land neighbours for water to become land
	EdgeIsLand       bool    `yaml:"edge_is_land"`
	NoiseRoughness   float64 `yaml:"noise_roughness"`
	NoiseScale       float64 `yaml:"noise_scale"`
}

// SimulationConfig holds per-tick process parameters.
type SimulationConfig struct {
	Seed                   int64   `yaml:"seed"` // 0 = random
	SpreadProbability      float64 `yaml:"spread_probability"`
	BorrowProbability      float64 `yaml:"borrow_probability"`
	MutationProbability    float64 `yaml:"mutation_probability"`
	SplitProbability       float64 `yaml:"split_probability"`
	AcquisitionProbability float64 `yaml:"acquisition_probability"`
	AcquireScale           float64 `yaml:"acquire_scale"` // Acquisition success = neighbour prestige × this
	SpreadScale            float64 `yaml:"spread_scale"`  // Spread success = prestige product × this
	BorrowScale            float64 `yaml:"borrow_scale"`  // Borrow success = donor prestige × this
	MinSplitSpeakers       int     `yaml:"min_split_speakers"`
	MaxSplitSize           int     `yaml:"max_split_size"`
	ContactLimit           int     `yaml:"contact_limit"`
	StartingLanguages      int     `yaml:"starting_languages"` // 0 = random 2–3
	SeedingPolicy          string  `yaml:"seeding_policy"`
	MinPopulation          int     `yaml:"min_population"`
	MaxPopulation          int     `yaml:"max_population"`
	TopK                   int     `yaml:"top_k"`
}

// LanguageConfig holds phoneme, vocabulary, and evolution parameters.
type LanguageConfig struct {
	MinPhonemes            int     `yaml:"min_phonemes"`
	MaxPhonemes            int     `yaml:"max_phonemes"`
	MinVowels              int     `yaml:"min_vowels"`
	VocabMin               int     `yaml:"vocab_min"`
	VocabMax               int     `yaml:"vocab_max"`
	MaxVocab               int     `yaml:"max_vocab"`
	InheritanceProbability float64 `yaml:"inheritance_probability"`
	PrestigeFloor          float64 `yaml:"prestige_floor"`
	PrestigeCeiling        float64 `yaml:"prestige_ceiling"`
	PrestigeDrift          float64 `yaml:"prestige_drift"`
	ConservatismMax        float64 `yaml:"conservatism_max"`
	ConservatismFactor     float64 `yaml:"conservatism_factor"`
	ContactInfluence       float64 `yaml:"contact_influence"`
	SoundChangeProbability float64 `yaml:"sound_change_probability"`
	MaxRules               int     `yaml:"max_rules"`
	MaxChangesPerWord      int     `yaml:"max_changes_per_word"`
	WordsPerEvolution      int     `yaml:"words_per_evolution"`
	EvolveCooldown         int     `yaml:"evolve_cooldown"`
}

// RunConfig holds driver settings used by the command, not the core.
type RunConfig struct {
	Ticks          uint64        `yaml:"ticks"`
	Interval       time.Duration `yaml:"interval"`
	ReportInterval uint64        `yaml:"report_interval"`
	DBPath         string        `yaml:"db_path"`
	OutputDir      string        `yaml:"output_dir"`
	LogLevel       string        `yaml:"log_level"`
}

// Default returns the embedded defaults.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run.
func (c Config) Validate() error {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	w := c.World
	if w.Width <= 0 || w.Height <= 0 || w.Width > MaxDimension || w.Height > MaxDimension {
		bad("grid %dx%d outside 1..%d", w.Width, w.Height, MaxDimension)
	}
	if w.SmoothingPasses < 0 {
		bad("smoothing_passes %d is negative", w.SmoothingPasses)
	}
	if w.SurviveThreshold < 0 || w.SurviveThreshold > 9 || w.BirthThreshold < 0 || w.BirthThreshold > 9 {
		bad("smoothing thresholds must be in 0..9")
	}
	if w.NoiseRoughness < 0 || w.NoiseScale < 0 {
		bad("noise parameters must be non-negative")
	}

	s := c.Simulation
	probs := map[string]float64{
		"world.land_probability":             w.LandProbability,
		"world.island_bias":                  w.IslandBias,
		"simulation.spread_probability":      s.SpreadProbability,
		"simulation.borrow_probability":      s.BorrowProbability,
		"simulation.mutation_probability":    s.MutationProbability,
		"simulation.split_probability":       s.SplitProbability,
		"simulation.acquisition_probability": s.AcquisitionProbability,
		"language.inheritance_probability":   c.Language.InheritanceProbability,
		"language.prestige_floor":            c.Language.PrestigeFloor,
		"language.prestige_ceiling":          c.Language.PrestigeCeiling,
		"language.conservatism_max":          c.Language.ConservatismMax,
		"language.conservatism_factor":       c.Language.ConservatismFactor,
		"language.contact_influence":         c.Language.ContactInfluence,
		"language.sound_change_probability":  c.Language.SoundChangeProbability,
	}
	for _, name := range sortedKeys(probs) {
		if v := probs[name]; v < 0 || v > 1 {
			bad("%s %v outside [0,1]", name, v)
		}
	}
	if s.AcquireScale < 0 || s.SpreadScale < 0 || s.BorrowScale < 0 {
		bad("acquire_scale, spread_scale and borrow_scale must be non-negative")
	}
	if s.MinSplitSpeakers < 2 {
		bad("min_split_speakers %d below 2", s.MinSplitSpeakers)
	}
	if s.MaxSplitSize < 1 {
		bad("max_split_size %d below 1", s.MaxSplitSize)
	}
	if s.ContactLimit < 0 || s.TopK < 0 || s.StartingLanguages < 0 {
		bad("contact_limit, top_k and starting_languages must be non-negative")
	}
	switch s.SeedingPolicy {
	case SeedRandom, SeedSparse, SeedPerCommunity:
	default:
		bad("unknown seeding_policy %q", s.SeedingPolicy)
	}
	if s.MinPopulation < 1 || s.MaxPopulation < s.MinPopulation {
		bad("population range %d..%d invalid", s.MinPopulation, s.MaxPopulation)
	}

	l := c.Language
	if l.MinVowels < 1 {
		bad("min_vowels %d below 1", l.MinVowels)
	}
	if l.MinPhonemes <= l.MinVowels || l.MinPhonemes > l.MaxPhonemes {
		bad("phoneme bounds %d..%d invalid for %d vowels", l.MinPhonemes, l.MaxPhonemes, l.MinVowels)
	}
	if l.MaxPhonemes > phonology.CatalogSize() {
		bad("max_phonemes %d exceeds catalog of %d", l.MaxPhonemes, phonology.CatalogSize())
	}
	if l.MinVowels > len(phonology.AllVowels()) {
		bad("min_vowels %d exceeds %d catalog vowels", l.MinVowels, len(phonology.AllVowels()))
	}
	if l.VocabMin < 1 || l.VocabMax < l.VocabMin || l.MaxVocab < l.VocabMin {
		bad("vocabulary bounds %d..%d (cap %d) invalid", l.VocabMin, l.VocabMax, l.MaxVocab)
	}
	if l.PrestigeFloor > l.PrestigeCeiling {
		bad("prestige_floor above prestige_ceiling")
	}
	if l.PrestigeDrift < 0 {
		bad("prestige_drift is negative")
	}
	if l.MaxRules < 1 || l.MaxChangesPerWord < 1 || l.WordsPerEvolution < 1 || l.EvolveCooldown < 0 {
		bad("rule and evolution limits must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration serialized as YAML.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
