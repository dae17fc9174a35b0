// Package motion models pointer velocity and scroll accumulation driven by
// held keys, and integrates it at a fixed tick rate.
package motion

import (
	"math"
	"sync"
	"time"
)

// Vec is a pair of sub-pixel coordinates or velocities.
type Vec struct {
	X, Y float64
}

// Dir is a signed sum of unit vectors contributed by held keys.
type Dir struct {
	X, Y int
}

func (d Dir) IsZero() bool { return d.X == 0 && d.Y == 0 }

// Params are the process-wide physics defaults. They are fixed at startup;
// key overrides replace them temporarily.
type Params struct {
	// TickRate is the integration frequency in Hz
	TickRate uint

	// Friction scales velocity each tick on an axis with no held direction
	Friction float64

	// Acceleration is added to velocity each tick per unit of direction
	Acceleration float64

	// Speed is the velocity limit in pixels per second
	Speed uint
}

// DefaultParams returns the built-in physics defaults.
func DefaultParams() Params {
	return Params{
		TickRate:     250,
		Friction:     0.90,
		Acceleration: 0.111,
		Speed:        800,
	}
}

// Interval returns the duration of one tick.
func (p Params) Interval() time.Duration {
	if p.TickRate == 0 {
		return 0
	}
	return time.Second / time.Duration(p.TickRate)
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Position        Vec
	Direction       Dir
	Velocity        Vec
	ScrollDirection Dir
	ScrollAccum     Vec
	Friction        float64
	Acceleration    float64
	Speed           uint
}

// State is the motion state shared by the key dispatcher and the integrator.
// All access goes through its methods, which hold a single lock.
type State struct {
	mu       sync.Mutex
	defaults Params

	position     Vec
	direction    Dir
	velocity     Vec
	scrollDir    Dir
	scrollAccum  Vec
	friction     float64
	acceleration float64
	speed        uint
}

// NewState creates a state at rest using defaults as the active physics.
func NewState(defaults Params) *State {
	return &State{
		defaults:     defaults,
		friction:     defaults.Friction,
		acceleration: defaults.Acceleration,
		speed:        defaults.Speed,
	}
}

// Defaults returns the parameters the state was created with.
func (s *State) Defaults() Params {
	return s.defaults
}

// SetPosition seeds the authoritative pointer position.
func (s *State) SetPosition(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = Vec{X: x, Y: y}
}

// AddDirection adds (dx, dy) to the movement direction. Releases pass the
// negated vector of the matching press.
func (s *State) AddDirection(dx, dy int) Dir {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direction.X += dx
	s.direction.Y += dy
	return s.direction
}

// AddScrollDirection adds (dx, dy) to the scroll direction.
func (s *State) AddScrollDirection(dx, dy int) Dir {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollDir.X += dx
	s.scrollDir.Y += dy
	return s.scrollDir
}

// SetPhysics overrides friction and acceleration.
func (s *State) SetPhysics(friction, acceleration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friction = friction
	s.acceleration = acceleration
}

// ResetPhysics restores the default friction and acceleration, whatever
// other override keys are still held.
func (s *State) ResetPhysics() {
	s.SetPhysics(s.defaults.Friction, s.defaults.Acceleration)
}

// SetSpeed overrides the velocity limit.
func (s *State) SetSpeed(speed uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = speed
}

// ResetSpeed restores the default velocity limit.
func (s *State) ResetSpeed() {
	s.SetSpeed(s.defaults.Speed)
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Position:        s.position,
		Direction:       s.direction,
		Velocity:        s.velocity,
		ScrollDirection: s.scrollDir,
		ScrollAccum:     s.scrollAccum,
		Friction:        s.friction,
		Acceleration:    s.acceleration,
		Speed:           s.speed,
	}
}

const (
	// velocities below this on an axis with no direction snap to zero
	velocityEpsilon = 1e-3

	// a whole scroll click is emitted once the accumulator reaches this;
	// 0.5 would oscillate on exact half-unit accumulation
	scrollThreshold = 0.51
)

// Scroll wheel buttons in X11 numbering.
const (
	ButtonScrollUp    uint = 4
	ButtonScrollDown  uint = 5
	ButtonScrollLeft  uint = 6
	ButtonScrollRight uint = 7
)

// Frame is the output requested by one tick.
type Frame struct {
	// Move is set when Position changed this tick
	Move     bool
	Position Vec

	// Scrolls lists the wheel buttons to click, in order
	Scrolls []uint
}

// step advances the state by one tick at the given rate.
func (s *State) step(rate uint) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Frame
	if rate == 0 {
		return f
	}
	r := float64(rate)
	unit := float64(s.speed) / r

	s.velocity.X += s.acceleration * float64(s.direction.X)
	s.velocity.Y += s.acceleration * float64(s.direction.Y)
	s.velocity.X = clamp(s.velocity.X, unit)
	s.velocity.Y = clamp(s.velocity.Y, unit)

	if s.direction.X == 0 {
		s.velocity.X = decay(s.velocity.X, s.friction)
	}
	if s.direction.Y == 0 {
		s.velocity.Y = decay(s.velocity.Y, s.friction)
	}

	if s.velocity.X != 0 || s.velocity.Y != 0 {
		s.position.X += s.velocity.X
		s.position.Y += s.velocity.Y
		f.Move = true
		f.Position = s.position
	}

	if !s.scrollDir.IsZero() {
		s.scrollAccum.X += float64(s.scrollDir.X) / r
		s.scrollAccum.Y += float64(s.scrollDir.Y) / r
		f.Scrolls = s.drainScroll()
	}
	return f
}

// drainScroll converts whole units of accumulated scroll into clicks and
// keeps the residual.
func (s *State) drainScroll() []uint {
	var clicks []uint
	for s.scrollAccum.Y <= -scrollThreshold {
		s.scrollAccum.Y++
		clicks = append(clicks, ButtonScrollUp)
	}
	for s.scrollAccum.Y >= scrollThreshold {
		s.scrollAccum.Y--
		clicks = append(clicks, ButtonScrollDown)
	}
	for s.scrollAccum.X <= -scrollThreshold {
		s.scrollAccum.X++
		clicks = append(clicks, ButtonScrollLeft)
	}
	for s.scrollAccum.X >= scrollThreshold {
		s.scrollAccum.X--
		clicks = append(clicks, ButtonScrollRight)
	}
	return clicks
}

func clamp(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}

func decay(v, friction float64) float64 {
	v *= friction
	if math.Abs(v) < velocityEpsilon {
		return 0
	}
	return v
}
