package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// pausePoll is how often a paused engine checks for resumption.
const pausePoll = 100 * time.Millisecond

// Engine drives a Simulation forward at a configurable cadence. The
// simulation itself has no timer; Engine owns the loop.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // Base tick interval (0 = as fast as possible)

	// Callbacks, populated during setup. Both run on the Run goroutine.
	OnTick      func(tick uint64) // Every tick
	OnReport    func(tick uint64) // Every ReportEvery ticks
	ReportEvery uint64

	mu    sync.Mutex
	speed float64 // Multiplier: 1.0 = Interval per tick, 0 = paused
}

// NewEngine creates an engine for sim with default settings.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:   sim,
		speed: 1.0,
	}
}

// SetSpeed changes the speed multiplier. It is safe to call while Run is
// active; 0 pauses.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Run steps the simulation until maxTicks ticks have run (0 = unbounded),
// ctx is cancelled, or a tick fails. It returns ctx.Err() on cancellation.
func (e *Engine) Run(ctx context.Context, maxTicks uint64) error {
	slog.Info("simulation engine started", "tick", e.Sim.Tick(), "speed", e.Speed(), "max_ticks", maxTicks)
	defer func() {
		slog.Info("simulation engine stopped", "tick", e.Sim.Tick())
	}()

	for n := uint64(0); maxTicks == 0 || n < maxTicks; {
		if err := ctx.Err(); err != nil {
			return err
		}
		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if err := sleep(ctx, pausePoll); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		if err := e.Sim.Step(); err != nil {
			return err
		}
		n++

		tick := e.Sim.Tick()
		if e.OnTick != nil {
			e.OnTick(tick)
		}
		if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
			e.OnReport(tick)
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		if e.Interval > 0 {
			target := time.Duration(float64(e.Interval) / speed)
			if elapsed := time.Since(start); elapsed < target {
				if err := sleep(ctx, target-elapsed); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
