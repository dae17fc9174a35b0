//go:build linux

package input

import "kbmouse/internal/binding"

// Linux input keycodes (linux/input-event-codes.h) to keysyms of a US
// layout at shift level 0.
var linuxKeysyms = map[uint16]binding.Key{
	1:  binding.KeyEscape,
	2:  '1',
	3:  '2',
	4:  '3',
	5:  '4',
	6:  '5',
	7:  '6',
	8:  '7',
	9:  '8',
	10: '9',
	11: '0',
	12: binding.KeyMinus,
	13: binding.KeyEqual,
	14: binding.KeyBackSpace,
	15: binding.KeyTab,
	16: 'q',
	17: 'w',
	18: 'e',
	19: 'r',
	20: 't',
	21: 'y',
	22: 'u',
	23: 'i',
	24: 'o',
	25: 'p',
	26: binding.KeyBracketLeft,
	27: binding.KeyBracketRight,
	28: binding.KeyReturn,
	29: binding.KeyControlL,
	30: 'a',
	31: 's',
	32: 'd',
	33: 'f',
	34: 'g',
	35: 'h',
	36: 'j',
	37: 'k',
	38: 'l',
	39: binding.KeySemicolon,
	40: binding.KeyApostrophe,
	41: binding.KeyGrave,
	42: binding.KeyShiftL,
	43: binding.KeyBackslash,
	44: 'z',
	45: 'x',
	46: 'c',
	47: 'v',
	48: 'b',
	49: 'n',
	50: 'm',
	51: binding.KeyComma,
	52: binding.KeyPeriod,
	53: binding.KeySlash,
	54: binding.KeyShiftR,
	55: binding.KeyKPMultiply,
	56: binding.KeyAltL,
	57: binding.KeySpace,
	58: binding.KeyCapsLock,
	59: binding.KeyF1,
	60: binding.KeyF1 + 1,
	61: binding.KeyF1 + 2,
	62: binding.KeyF1 + 3,
	63: binding.KeyF1 + 4,
	64: binding.KeyF1 + 5,
	65: binding.KeyF1 + 6,
	66: binding.KeyF1 + 7,
	67: binding.KeyF1 + 8,
	68: binding.KeyF1 + 9,
	69: binding.KeyNumLock,
	70: binding.KeyScrollLck,
	71: binding.KeyKP0 + 7,
	72: binding.KeyKP0 + 8,
	73: binding.KeyKP0 + 9,
	74: binding.KeyKPSubtract,
	75: binding.KeyKP0 + 4,
	76: binding.KeyKP0 + 5,
	77: binding.KeyKP0 + 6,
	78: binding.KeyKPAdd,
	79: binding.KeyKP0 + 1,
	80: binding.KeyKP0 + 2,
	81: binding.KeyKP0 + 3,
	82: binding.KeyKP0,
	83: binding.KeyKPDecimal,
	87: binding.KeyF1 + 10,
	88: binding.KeyF1 + 11,
	96: binding.KeyKPEnter,
	97: binding.KeyControlR,
	98: binding.KeyKPDivide,
	99: binding.KeyPrint,
	// right alt acts as AltGr on most layouts
	100: binding.KeyISOLevel3Shift,
	102: binding.KeyHome,
	103: binding.KeyUp,
	104: binding.KeyPrior,
	105: binding.KeyLeft,
	106: binding.KeyRight,
	107: binding.KeyEnd,
	108: binding.KeyDown,
	109: binding.KeyNext,
	110: binding.KeyInsert,
	111: binding.KeyDelete,
	119: binding.KeyPause,
	125: binding.KeySuperL,
	126: binding.KeySuperR,
	127: binding.KeyMenu,
}

// keysymForCode returns the keysym of a Linux keycode, or 0 if unmapped
func keysymForCode(code uint16) binding.Key {
	return linuxKeysyms[code]
}
