package config

import (
	"fmt"
	"math"
	"strings"

	"kbmouse/internal/binding"
	"kbmouse/internal/input"
	"kbmouse/internal/logging"
	"kbmouse/internal/motion"
)

// FromTable converts a binding table into its file representation
func FromTable(table binding.Table) []BindingConfig {
	out := make([]BindingConfig, 0, len(table))
	for _, b := range table {
		entry := BindingConfig{Key: binding.KeyName(b.Key)}
		switch a := b.Action.(type) {
		case binding.Move:
			entry.Move = []int{a.DX, a.DY}
		case binding.Scroll:
			entry.Scroll = []int{a.DX, a.DY}
		case binding.Physics:
			entry.Physics = &PhysicsOverride{Friction: a.Friction, Acceleration: a.Acceleration}
		case binding.Speed:
			v := a.Value
			entry.Speed = &v
		case binding.Button:
			v := a.ID
			entry.Button = &v
		case binding.Quit:
			v := a.Code
			entry.Quit = &v
		}
		out = append(out, entry)
	}
	return out
}

// Binding resolves the entry into a table row
func (b BindingConfig) Binding() (binding.Binding, error) {
	key, err := binding.ParseKey(b.Key)
	if err != nil {
		return binding.Binding{}, err
	}

	var actions []binding.Action
	if b.Move != nil {
		v, err := vector("move", b.Move)
		if err != nil {
			return binding.Binding{}, err
		}
		actions = append(actions, binding.Move{DX: v[0], DY: v[1]})
	}
	if b.Scroll != nil {
		v, err := vector("scroll", b.Scroll)
		if err != nil {
			return binding.Binding{}, err
		}
		actions = append(actions, binding.Scroll{DX: v[0], DY: v[1]})
	}
	if b.Physics != nil {
		if err := checkFriction(b.Physics.Friction); err != nil {
			return binding.Binding{}, fmt.Errorf("%w: physics %v", ErrInvalidBinding, err)
		}
		if err := checkAcceleration(b.Physics.Acceleration); err != nil {
			return binding.Binding{}, fmt.Errorf("%w: physics %v", ErrInvalidBinding, err)
		}
		actions = append(actions, binding.Physics{Friction: b.Physics.Friction, Acceleration: b.Physics.Acceleration})
	}
	if b.Speed != nil {
		if *b.Speed == 0 {
			return binding.Binding{}, fmt.Errorf("%w: speed must be positive", ErrInvalidBinding)
		}
		actions = append(actions, binding.Speed{Value: *b.Speed})
	}
	if b.Button != nil {
		if *b.Button == 0 {
			return binding.Binding{}, fmt.Errorf("%w: button must be positive", ErrInvalidBinding)
		}
		actions = append(actions, binding.Button{ID: *b.Button})
	}
	if b.Quit != nil {
		actions = append(actions, binding.Quit{Code: *b.Quit})
	}

	switch len(actions) {
	case 0:
		return binding.Binding{}, fmt.Errorf("%w: no action", ErrInvalidBinding)
	case 1:
		return binding.Binding{Key: key, Action: actions[0]}, nil
	default:
		return binding.Binding{}, fmt.Errorf("%w: %d actions in one entry", ErrInvalidBinding, len(actions))
	}
}

func vector(kind string, v []int) ([2]int, error) {
	if len(v) != 2 {
		return [2]int{}, fmt.Errorf("%w: %s needs [x, y], got %d values", ErrInvalidBinding, kind, len(v))
	}
	if v[0] == 0 && v[1] == 0 {
		return [2]int{}, fmt.Errorf("%w: %s vector is zero", ErrInvalidBinding, kind)
	}
	return [2]int{v[0], v[1]}, nil
}

func checkFriction(f float64) error {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("friction %v outside [0, 1]", f)
	}
	return nil
}

func checkAcceleration(a float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return fmt.Errorf("acceleration %v must be a non-negative number", a)
	}
	return nil
}

// Validate checks every setting and binding
func (c *Config) Validate() error {
	switch strings.ToLower(c.General.Backend) {
	case input.BackendX11, input.BackendEvdev:
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.General.Backend)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatAuto, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	p := c.Physics
	if p.TickRate == 0 {
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalidConfig)
	}
	if p.Speed == 0 {
		return fmt.Errorf("%w: speed must be positive", ErrInvalidConfig)
	}
	if err := checkFriction(p.Friction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := checkAcceleration(p.Acceleration); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := c.ModifierKeys(); err != nil {
		return err
	}
	_, err := c.Table()
	return err
}

// Table builds the binding table in file order
func (c *Config) Table() (binding.Table, error) {
	table := make(binding.Table, 0, len(c.Bindings))
	for i, entry := range c.Bindings {
		b, err := entry.Binding()
		if err != nil {
			return nil, fmt.Errorf("binding %d (%s): %w", i+1, entry.Key, err)
		}
		table = append(table, b)
	}
	return table, nil
}

// ModifierKeys resolves the modifier names
func (c *Config) ModifierKeys() ([]binding.Key, error) {
	keys := make([]binding.Key, 0, len(c.Modifiers))
	for _, name := range c.Modifiers {
		k, err := binding.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("modifier: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Params returns the motion defaults
func (c *Config) Params() motion.Params {
	return motion.Params{
		TickRate:     c.Physics.TickRate,
		Friction:     c.Physics.Friction,
		Acceleration: c.Physics.Acceleration,
		Speed:        c.Physics.Speed,
	}
}
