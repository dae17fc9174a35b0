// Package binding describes what each key does while it is held.
package binding

import "fmt"

// Key identifies a key symbolically. Values are X11 keysyms regardless of the
// backend that produced the event.
type Key uint32

// Action is one of Move, Scroll, Physics, Speed, Button or Quit.
type Action interface {
	action()
	String() string
}

// Move adds a unit direction to the pointer while the key is held.
type Move struct {
	DX, DY int
}

// Scroll adds a unit scroll direction while the key is held.
type Scroll struct {
	DX, DY int
}

// Physics overrides friction and acceleration while the key is held.
type Physics struct {
	Friction     float64
	Acceleration float64
}

// Speed overrides the velocity limit (pixels per second) while the key is held.
type Speed struct {
	Value uint
}

// Button presses and releases a pointer button along with the key.
type Button struct {
	ID uint
}

// Quit ends the process with Code when the key is released.
type Quit struct {
	Code int
}

func (Move) action()    {}
func (Scroll) action()  {}
func (Physics) action() {}
func (Speed) action()   {}
func (Button) action()  {}
func (Quit) action()    {}

func (a Move) String() string   { return fmt.Sprintf("move(%d,%d)", a.DX, a.DY) }
func (a Scroll) String() string { return fmt.Sprintf("scroll(%d,%d)", a.DX, a.DY) }
func (a Physics) String() string {
	return fmt.Sprintf("physics(friction=%g,accel=%g)", a.Friction, a.Acceleration)
}
func (a Speed) String() string  { return fmt.Sprintf("speed(%d)", a.Value) }
func (a Button) String() string { return fmt.Sprintf("button(%d)", a.ID) }
func (a Quit) String() string   { return fmt.Sprintf("quit(%d)", a.Code) }

// Binding ties a key to a single action.
type Binding struct {
	Key    Key
	Action Action
}

func (b Binding) String() string {
	return KeyName(b.Key) + " -> " + b.Action.String()
}

// Table is the ordered binding list. It is built once at startup and never
// modified afterwards.
type Table []Binding

// Match returns the actions bound to key in table order.
func (t Table) Match(key Key) []Action {
	var actions []Action
	for _, b := range t {
		if b.Key == key {
			actions = append(actions, b.Action)
		}
	}
	return actions
}

// Keys returns the distinct keys used by the table, in first-use order.
func (t Table) Keys() []Key {
	seen := make(map[Key]bool, len(t))
	keys := make([]Key, 0, len(t))
	for _, b := range t {
		if seen[b.Key] {
			continue
		}
		seen[b.Key] = true
		keys = append(keys, b.Key)
	}
	return keys
}
