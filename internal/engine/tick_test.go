package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEngineRunsMaxTicks(t *testing.T) {
	s := newSim(t, testConfig(1))
	e := NewEngine(s)
	var ticks, reports []uint64
	e.OnTick = func(tick uint64) { ticks = append(ticks, tick) }
	e.ReportEvery = 5
	e.OnReport = func(tick uint64) { reports = append(reports, tick) }

	if err := e.Run(context.Background(), 12); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.Tick() != 12 || len(ticks) != 12 || ticks[11] != 12 {
		t.Fatalf("tick %d, callbacks %v", s.Tick(), ticks)
	}
	if len(reports) != 2 || reports[0] != 5 || reports[1] != 10 {
		t.Fatalf("reports at %v, want [5 10]", reports)
	}
}

func TestEngineStopsOnCancel(t *testing.T) {
	s := newSim(t, testConfig(1))
	e := NewEngine(s)
	e.SetSpeed(0)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	err := e.Run(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v, want deadline exceeded", err)
	}
	if s.Tick() != 0 {
		t.Fatalf("paused engine advanced to tick %d", s.Tick())
	}
}

func TestEngineIntervalPacing(t *testing.T) {
	s := newSim(t, testConfig(1))
	e := NewEngine(s)
	e.Interval = 20 * time.Millisecond
	e.SetSpeed(2)

	start := time.Now()
	if err := e.Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("3 ticks at 10ms each took %v", elapsed)
	}
}

func TestEngineStopsOnStepError(t *testing.T) {
	cfg := testConfig(2)
	allLand(&cfg, 4, 4)
	cfg.Simulation.BorrowProbability = 1
	cfg.Simulation.SpreadProbability = 0
	s := newSim(t, cfg)
	s.communities[0].LanguageID = 9999

	err := NewEngine(s).Run(context.Background(), 10)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("Run() = %v, want ErrInvariant", err)
	}
	if s.Tick() != 0 {
		t.Fatalf("tick %d after failed first step", s.Tick())
	}
}
