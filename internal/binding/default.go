package binding

// Pointer buttons in X11 numbering.
const (
	ButtonLeft   uint = 1
	ButtonMiddle uint = 2
	ButtonRight  uint = 3
)

// DefaultModifiers returns the keys that are forwarded to applications even
// while the keyboard is grabbed.
func DefaultModifiers() []Key {
	return []Key{
		KeyShiftL, KeyShiftR, KeyControlL, KeyControlR,
		KeyMetaL, KeyMetaR, KeyAltL, KeyAltR,
		KeySuperL, KeySuperR, KeyHyperL, KeyHyperR,
		KeyISOLevel3Shift,
	}
}

// DefaultTable returns the built-in bindings.
func DefaultTable() Table {
	return Table{
		{KeySpace, Physics{Friction: 0.92, Acceleration: 0.22}},
		{Key('a'), Physics{Friction: 0.87, Acceleration: 0.05}},
		{KeySpace, Speed{Value: 1500}},
		{Key('a'), Speed{Value: 250}},

		{Key('r'), Move{DX: -1, DY: 0}},
		{Key('t'), Move{DX: 1, DY: 0}},
		{Key('f'), Move{DX: 0, DY: -1}},
		{Key('s'), Move{DX: 0, DY: 1}},

		{KeyPeriod, Button{ID: ButtonLeft}},
		{KeyComma, Button{ID: ButtonMiddle}},
		{KeySlash, Button{ID: ButtonRight}},

		{KeyEscape, Scroll{DX: 0, DY: 15}},
		{Key('o'), Scroll{DX: 0, DY: -15}},
		{KeyPlus, Scroll{DX: 0, DY: 80}},
		{KeyMinus, Scroll{DX: 0, DY: -80}},
		{Key('y'), Scroll{DX: 15, DY: 0}},
		{Key('u'), Scroll{DX: -15, DY: 0}},

		{KeyISOLevel3Shift, Quit{Code: 0}},
		{Key('q'), Quit{Code: 0}},
	}
}
