package motion

import (
	"context"
	"log/slog"
	"time"
)

// Pointer receives the output of the integrator.
type Pointer interface {
	// WarpPointer moves the pointer to absolute coordinates.
	WarpPointer(x, y float64) error

	// InjectButton presses or releases a pointer button.
	InjectButton(id uint, pressed bool) error
}

// Integrator advances a State at a fixed rate and forwards the resulting
// motion and scroll clicks to a Pointer.
type Integrator struct {
	state   *State
	pointer Pointer
	rate    uint
	logger  *slog.Logger

	lastErr string
}

// NewIntegrator creates an integrator ticking at the state's default rate.
func NewIntegrator(state *State, pointer Pointer, logger *slog.Logger) *Integrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Integrator{
		state:   state,
		pointer: pointer,
		rate:    state.Defaults().TickRate,
		logger:  logger,
	}
}

// Step advances the state by one tick without producing output.
func (in *Integrator) Step() Frame {
	return in.state.step(in.rate)
}

// Tick advances the state by one tick and emits the resulting pointer motion
// and scroll clicks. Output happens outside the state lock.
func (in *Integrator) Tick() Frame {
	f := in.Step()
	if f.Move {
		in.report("warp pointer", in.pointer.WarpPointer(f.Position.X, f.Position.Y))
	}
	for _, button := range f.Scrolls {
		in.report("scroll press", in.pointer.InjectButton(button, true))
		in.report("scroll release", in.pointer.InjectButton(button, false))
		in.logger.Debug("scroll click", "button", button)
	}
	return f
}

// report logs output failures once until the error changes, so a missing
// display does not flood the log at the tick rate.
func (in *Integrator) report(op string, err error) {
	if err == nil {
		return
	}
	if msg := err.Error(); msg != in.lastErr {
		in.lastErr = msg
		in.logger.Warn("pointer output failed", "op", op, "error", err)
	}
}

// Run ticks until ctx is cancelled. Deadlines are computed from the
// monotonic clock; when the loop falls a whole interval or more behind, the
// missed ticks are dropped rather than integrated twice.
func (in *Integrator) Run(ctx context.Context) {
	interval := in.state.Defaults().Interval()
	if interval <= 0 {
		in.logger.Error("motion loop not started: tick rate is zero")
		return
	}

	in.logger.Info("Motion loop started", "rate_hz", in.rate, "interval", interval)
	defer in.logger.Info("Motion loop stopped")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	next := time.Now()
	for {
		in.Tick()

		next = next.Add(interval)
		if behind := time.Since(next); behind >= interval {
			skipped := behind / interval
			next = next.Add(skipped * interval)
			in.logger.Debug("motion loop behind schedule", "skipped_ticks", int64(skipped))
		}

		timer.Reset(time.Until(next))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
