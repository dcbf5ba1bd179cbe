// Command langsim runs the language evolution simulation headless: it
// builds a world, drives it for a number of ticks, and archives the run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/lingua-world/internal/config"
	"github.com/talgya/lingua-world/internal/engine"
	"github.com/talgya/lingua-world/internal/persistence"
	"github.com/talgya/lingua-world/internal/telemetry"
)

func main() {
	configPath := flag.String("config", envOrDefault("LANGSIM_CONFIG", ""), "YAML config file (defaults embedded)")
	dumpConfig := flag.Bool("dump-config", false, "print the effective config and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = applyEnv(&cfg)
	}
	setupLogging(cfg.Run.LogLevel)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if *dumpConfig {
		data, err := cfg.YAML()
		if err != nil {
			slog.Error("dump config", "error", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if err := run(cfg); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	// ── Simulation ────────────────────────────────────────────────────
	// Events are collected here between reports; the simulation's own
	// history is bounded.
	var journal []engine.Event
	drain := func() []engine.Event {
		events := journal
		journal = nil
		return events
	}
	sim, err := engine.New(cfg, engine.WithEventSink(func(events []engine.Event) {
		journal = append(journal, events...)
	}))
	if err != nil {
		return err
	}
	slog.Info("replay with", "seed", sim.Seed())

	// ── Database ──────────────────────────────────────────────────────
	var arch *persistence.Archiver
	if cfg.Run.DBPath != "" {
		if dir := filepath.Dir(cfg.Run.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
		}
		db, err := persistence.Open(cfg.Run.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Run.DBPath)

		arch, err = persistence.NewArchiver(db, sim)
		if err != nil {
			return err
		}
	}
	initial := drain()
	if arch != nil {
		if err := arch.Save(sim, initial); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── CSV output ────────────────────────────────────────────────────
	out, err := telemetry.NewOutputManager(cfg.Run.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("write config failed", "error", err)
	}
	if err := out.WriteStats(sim.Stats()); err != nil {
		slog.Error("write stats failed", "error", err)
	}
	if err := out.WriteEvents(initial); err != nil {
		slog.Error("write events failed", "error", err)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Interval = cfg.Run.Interval
	eng.ReportEvery = cfg.Run.ReportInterval
	var lastReport uint64
	eng.OnReport = func(tick uint64) {
		sim.LogReport(lastReport)
		events := drain()
		if err := out.WriteStats(sim.Stats()); err != nil {
			slog.Error("write stats failed", "error", err)
		}
		if err := out.WriteEvents(events); err != nil {
			slog.Error("write events failed", "error", err)
		}
		if arch != nil {
			if err := arch.Save(sim, events); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
		lastReport = tick
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	runErr := eng.Run(ctx, cfg.Run.Ticks)
	if errors.Is(runErr, context.Canceled) {
		slog.Info("received signal, shutting down")
		runErr = nil
	}

	// Final save on shutdown.
	events := drain()
	if err := out.WriteEvents(events); err != nil {
		slog.Error("write events failed", "error", err)
	}
	if err := out.WriteLanguages(sim.Snapshot()); err != nil {
		slog.Error("write languages failed", "error", err)
	}
	if arch != nil {
		if err := arch.Save(sim, events); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	st := sim.Stats()
	fmt.Printf("\n%s ticks in %s: %d languages in %d families, %d extinct, %d born by split.\n",
		humanize.Comma(int64(st.Tick)), time.Since(start).Round(time.Millisecond),
		st.TotalLanguages, st.Families, st.ExtinctLanguages, st.CreatedLanguages)
	for i, l := range st.TopLanguages {
		fmt.Printf("  %s %-16s %s communities\n", humanize.Ordinal(i+1), l.Name, humanize.Comma(int64(l.Speakers)))
	}
	if arch != nil {
		fmt.Printf("Run %s archived to %s\n", arch.RunID(), cfg.Run.DBPath)
	}
	return runErr
}

// setupLogging installs a text handler on terminals and JSON otherwise.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// applyEnv overrides config fields from LANGSIM_* environment variables.
func applyEnv(cfg *config.Config) error {
	if v := os.Getenv("LANGSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LANGSIM_SEED: %w", err)
		}
		cfg.Simulation.Seed = seed
	}
	if v := os.Getenv("LANGSIM_TICKS"); v != "" {
		ticks, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LANGSIM_TICKS: %w", err)
		}
		cfg.Run.Ticks = ticks
	}
	cfg.Run.DBPath = envOrDefault("LANGSIM_DB", cfg.Run.DBPath)
	cfg.Run.OutputDir = envOrDefault("LANGSIM_OUTPUT", cfg.Run.OutputDir)
	cfg.Run.LogLevel = strings.ToLower(envOrDefault("LANGSIM_LOG_LEVEL", cfg.Run.LogLevel))
	return cfg.Validate()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
