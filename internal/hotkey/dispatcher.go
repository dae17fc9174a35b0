// Package hotkey applies key bindings to the shared motion state.
package hotkey

import (
	"log/slog"
	"sync"

	"kbmouse/internal/binding"
	"kbmouse/internal/input"
	"kbmouse/internal/motion"
)

// Synthesizer forwards keys and buttons to the system
type Synthesizer interface {
	InjectKey(code uint16, pressed bool) error
	InjectButton(id uint, pressed bool) error
}

// Dispatcher resolves key events against a binding table and updates the
// motion state. It is safe to use from the input goroutine while the
// integrator ticks concurrently.
type Dispatcher struct {
	table     binding.Table
	modifiers map[binding.Key]bool
	state     *motion.State
	out       Synthesizer
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	status  int
	done    chan struct{}
}

// NewDispatcher creates a dispatcher. Keys in modifiers are forwarded to
// the system as well as matched against the table.
func NewDispatcher(table binding.Table, modifiers []binding.Key, state *motion.State, out Synthesizer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	mods := make(map[binding.Key]bool, len(modifiers))
	for _, k := range modifiers {
		mods[k] = true
	}
	return &Dispatcher{
		table:     table,
		modifiers: mods,
		state:     state,
		out:       out,
		logger:    logger,
		running:   true,
		done:      make(chan struct{}),
	}
}

// HandleKey processes one press or release
func (d *Dispatcher) HandleKey(ev input.KeyEvent) {
	if d.modifiers[ev.Key] {
		if err := d.out.InjectKey(ev.Code, ev.Pressed); err != nil {
			d.logger.Warn("Failed to forward modifier", "key", binding.KeyName(ev.Key), "error", err)
		}
	}

	for _, action := range d.table.Match(ev.Key) {
		d.apply(ev.Key, action, ev.Pressed)
	}
}

func (d *Dispatcher) apply(key binding.Key, action binding.Action, pressed bool) {
	sign := 1
	if !pressed {
		sign = -1
	}

	switch a := action.(type) {
	case binding.Move:
		d.state.AddDirection(sign*a.DX, sign*a.DY)

	case binding.Scroll:
		dir := d.state.AddScrollDirection(sign*a.DX, sign*a.DY)
		d.logger.Debug("scroll", "x", dir.X, "y", dir.Y, "pressed", pressed)

	case binding.Physics:
		if pressed {
			d.state.SetPhysics(a.Friction, a.Acceleration)
		} else {
			d.state.ResetPhysics()
		}
		snap := d.state.Snapshot()
		d.logger.Debug("physics", "friction", snap.Friction, "accel", snap.Acceleration)

	case binding.Speed:
		if pressed {
			d.state.SetSpeed(a.Value)
		} else {
			d.state.ResetSpeed()
		}
		d.logger.Debug("speed", "speed", d.state.Snapshot().Speed)

	case binding.Button:
		if err := d.out.InjectButton(a.ID, pressed); err != nil {
			d.logger.Warn("Failed to forward button", "button", a.ID, "error", err)
			return
		}
		d.logger.Debug("click", "button", a.ID, "pressed", pressed)

	case binding.Quit:
		if !pressed {
			d.logger.Info("Quit requested", "key", binding.KeyName(key), "status", a.Code)
			d.quit(a.Code)
		}
	}
}

func (d *Dispatcher) quit(code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	d.status = code
	close(d.done)
}

// Running reports whether no quit has been requested yet
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// ExitCode returns the status carried by the quit action, 0 before one fired
func (d *Dispatcher) ExitCode() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Done is closed when a quit action fires
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
