package motion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
)

type buttonEvent struct {
	id      uint
	pressed bool
}

type recordingPointer struct {
	mu      sync.Mutex
	warps   []Vec
	buttons []buttonEvent
	err     error
}

func (p *recordingPointer) WarpPointer(x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warps = append(p.warps, Vec{X: x, Y: y})
	return p.err
}

func (p *recordingPointer) InjectButton(id uint, pressed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buttons = append(p.buttons, buttonEvent{id, pressed})
	return p.err
}

func (p *recordingPointer) clicks(id uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buttons {
		if b.id == id && b.pressed {
			n++
		}
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenarioParams() Params {
	return Params{TickRate: 250, Friction: 0.92, Acceleration: 0.22, Speed: 800}
}

func newTestIntegrator(p Params) (*State, *Integrator, *recordingPointer) {
	state := NewState(p)
	ptr := &recordingPointer{}
	return state, NewIntegrator(state, ptr, quietLogger()), ptr
}

func TestHeldMoveKeyAcceleratesThenDecays(t *testing.T) {
	p := scenarioParams()
	state, in, ptr := newTestIntegrator(p)
	unit := float64(p.Speed) / float64(p.TickRate)

	state.AddDirection(-1, 0)
	for i := 0; i < 50; i++ {
		in.Tick()
		v := state.Snapshot().Velocity.X
		if v >= 0 {
			t.Fatalf("tick %d: expected negative velocity while held, got %f", i, v)
		}
		if v < -unit {
			t.Fatalf("tick %d: velocity %f exceeds limit %f", i, v, unit)
		}
	}
	if v := state.Snapshot().Velocity.X; v != -unit {
		t.Errorf("Expected velocity clamped to %f after 50 ticks, got %f", -unit, v)
	}

	state.AddDirection(1, 0)
	prev := state.Snapshot().Velocity.X
	for i := 0; i < 50; i++ {
		in.Tick()
		v := state.Snapshot().Velocity.X
		if v < prev || v > 0 {
			t.Fatalf("tick %d after release: expected monotonic decay toward 0, got %f after %f", i, v, prev)
		}
		prev = v
	}

	ticks := 0
	for state.Snapshot().Velocity.X != 0 {
		in.Tick()
		ticks++
		if ticks > 500 {
			t.Fatalf("velocity did not snap to zero, still %f", state.Snapshot().Velocity.X)
		}
	}

	// once at rest, no further output
	warps := len(ptr.warps)
	in.Tick()
	if len(ptr.warps) != warps {
		t.Errorf("Expected no warp at rest, got %d new warps", len(ptr.warps)-warps)
	}
	if got := state.Snapshot().Position.X; got >= 0 {
		t.Errorf("Expected pointer to have moved left, position.x = %f", got)
	}
}

func TestVelocityNeverExceedsLimit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		p := Params{
			TickRate:     uint(50 + rng.IntN(950)),
			Friction:     rng.Float64(),
			Acceleration: rng.Float64() * 20,
			Speed:        uint(1 + rng.IntN(5000)),
		}
		state, in, _ := newTestIntegrator(p)
		unit := float64(p.Speed) / float64(p.TickRate)

		for tick := 0; tick < 200; tick++ {
			if tick%17 == 0 {
				state.AddDirection(rng.IntN(7)-3, rng.IntN(7)-3)
			}
			if tick%29 == 0 {
				state.SetPhysics(rng.Float64(), rng.Float64()*50)
			}
			in.Step()
			v := state.Snapshot().Velocity
			if math.Abs(v.X) > unit || math.Abs(v.Y) > unit {
				t.Fatalf("trial %d tick %d: velocity %+v exceeds limit %f", trial, tick, v, unit)
			}
			if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
				t.Fatalf("trial %d tick %d: non-finite velocity %+v", trial, tick, v)
			}
		}
	}
}

func TestSpeedOverrideChangesLimit(t *testing.T) {
	state, in, _ := newTestIntegrator(scenarioParams())
	state.SetSpeed(250)
	state.AddDirection(0, 1)
	for i := 0; i < 20; i++ {
		in.Step()
	}
	if v := state.Snapshot().Velocity.Y; v != 1.0 {
		t.Errorf("Expected velocity clamped to 250/250 = 1, got %f", v)
	}

	state.ResetSpeed()
	for i := 0; i < 20; i++ {
		in.Step()
	}
	if v := state.Snapshot().Velocity.Y; v != 3.2 {
		t.Errorf("Expected velocity clamped to 800/250 = 3.2 after reset, got %f", v)
	}
}

func TestFrictionDecaySnapsToZero(t *testing.T) {
	for _, friction := range []float64{0.1, 0.5, 0.9, 0.99} {
		p := scenarioParams()
		p.Friction = friction
		state, in, _ := newTestIntegrator(p)

		state.AddDirection(1, 1)
		for i := 0; i < 30; i++ {
			in.Step()
		}
		state.AddDirection(-1, -1)

		limit := 2000
		ticks := 0
		for {
			v := state.Snapshot().Velocity
			if v.X == 0 && v.Y == 0 {
				break
			}
			in.Step()
			ticks++
			if ticks > limit {
				t.Fatalf("friction %f: velocity %+v still nonzero after %d ticks", friction, v, limit)
			}
		}
	}
}

func TestOnlyAxesWithoutDirectionDecay(t *testing.T) {
	state, in, _ := newTestIntegrator(scenarioParams())
	state.AddDirection(1, 1)
	for i := 0; i < 30; i++ {
		in.Step()
	}
	state.AddDirection(0, -1)
	in.Step()

	v := state.Snapshot().Velocity
	if v.X != 3.2 {
		t.Errorf("Expected held axis to stay at the limit, got %f", v.X)
	}
	if v.Y >= 3.2 || v.Y <= 0 {
		t.Errorf("Expected released axis to decay, got %f", v.Y)
	}
}

func TestScrollHeldEmitsOneClick(t *testing.T) {
	state, in, ptr := newTestIntegrator(scenarioParams())
	state.AddScrollDirection(0, 15)
	for i := 0; i < 17; i++ {
		in.Tick()
	}

	if n := ptr.clicks(ButtonScrollDown); n != 1 {
		t.Errorf("Expected exactly 1 scroll-down click, got %d", n)
	}
	if n := ptr.clicks(ButtonScrollUp); n != 0 {
		t.Errorf("Expected no scroll-up clicks, got %d", n)
	}
	if len(ptr.buttons) != 2 || ptr.buttons[0] != (buttonEvent{ButtonScrollDown, true}) || ptr.buttons[1] != (buttonEvent{ButtonScrollDown, false}) {
		t.Errorf("Expected a press/release pair, got %+v", ptr.buttons)
	}
}

func TestScrollBelowThresholdEmitsNothing(t *testing.T) {
	state, in, ptr := newTestIntegrator(scenarioParams())
	state.AddScrollDirection(-1, 1)
	for i := 0; i < 120; i++ {
		in.Tick()
	}
	if len(ptr.buttons) != 0 {
		t.Errorf("Expected no clicks while accumulator is inside (-0.51, 0.51), got %+v", ptr.buttons)
	}
	acc := state.Snapshot().ScrollAccum
	if math.Abs(acc.Y-0.48) > 1e-9 || math.Abs(acc.X+0.48) > 1e-9 {
		t.Errorf("Expected accumulator (-0.48, 0.48), got %+v", acc)
	}
}

func TestScrollAccumulationIsLossless(t *testing.T) {
	tests := []struct {
		dir   Dir
		ticks int
	}{
		{Dir{0, 15}, 1000},
		{Dir{0, -80}, 333},
		{Dir{15, 0}, 777},
		{Dir{-7, 3}, 1234},
	}

	for _, tt := range tests {
		p := scenarioParams()
		state, in, ptr := newTestIntegrator(p)
		state.AddScrollDirection(tt.dir.X, tt.dir.Y)
		for i := 0; i < tt.ticks; i++ {
			in.Tick()
			acc := state.Snapshot().ScrollAccum
			if math.Abs(acc.X) >= 1 || math.Abs(acc.Y) >= 1 {
				t.Fatalf("%+v: accumulator %+v left (-1, 1)", tt.dir, acc)
			}
		}

		totalY := float64(tt.dir.Y) * float64(tt.ticks) / float64(p.TickRate)
		totalX := float64(tt.dir.X) * float64(tt.ticks) / float64(p.TickRate)
		gotY := ptr.clicks(ButtonScrollDown) - ptr.clicks(ButtonScrollUp)
		gotX := ptr.clicks(ButtonScrollRight) - ptr.clicks(ButtonScrollLeft)

		if d := math.Abs(float64(gotY) - math.Floor(totalY)); d > 1 {
			t.Errorf("%+v: expected about %f vertical clicks, got %d", tt.dir, totalY, gotY)
		}
		if d := math.Abs(float64(gotX) - math.Floor(totalX)); d > 1 {
			t.Errorf("%+v: expected about %f horizontal clicks, got %d", tt.dir, totalX, gotX)
		}

		acc := state.Snapshot().ScrollAccum
		if d := math.Abs(float64(gotY) + acc.Y - totalY); d > 1e-6 {
			t.Errorf("%+v: clicks plus residual %f differs from total %f", tt.dir, float64(gotY)+acc.Y, totalY)
		}
	}
}

func TestTickLogsOutputErrorsAndContinues(t *testing.T) {
	state, in, ptr := newTestIntegrator(scenarioParams())
	ptr.err = errors.New("display gone")
	state.AddDirection(1, 0)
	for i := 0; i < 5; i++ {
		in.Tick()
	}
	if len(ptr.warps) != 5 {
		t.Errorf("Expected 5 warp attempts, got %d", len(ptr.warps))
	}
	if got := state.Snapshot().Position.X; got <= 0 {
		t.Errorf("Expected state to keep integrating, position.x = %f", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	p := scenarioParams()
	p.TickRate = 1000
	state, in, ptr := newTestIntegrator(p)
	state.AddDirection(0, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		in.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	ptr.mu.Lock()
	defer ptr.mu.Unlock()
	if len(ptr.warps) == 0 {
		t.Error("Expected pointer warps while running")
	}
	if len(ptr.warps) > 60 {
		t.Errorf("Expected at most ~50 ticks in 50ms at 1000 Hz, got %d", len(ptr.warps))
	}
}

func TestZeroTickRateDoesNothing(t *testing.T) {
	p := scenarioParams()
	p.TickRate = 0
	state, in, _ := newTestIntegrator(p)
	state.AddDirection(1, 0)
	if f := in.Step(); f.Move {
		t.Error("Expected no movement at zero tick rate")
	}
	in.Run(context.Background())
}

func TestParamsInterval(t *testing.T) {
	if got := DefaultParams().Interval(); got != 4*time.Millisecond {
		t.Errorf("Expected 4ms at 250 Hz, got %v", got)
	}
}
