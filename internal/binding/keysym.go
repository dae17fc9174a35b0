package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Keysyms used by the default table and the evdev keycode map.
const (
	KeySpace        Key = 0x0020
	KeyApostrophe   Key = 0x0027
	KeyPlus         Key = 0x002b
	KeyComma        Key = 0x002c
	KeyMinus        Key = 0x002d
	KeyPeriod       Key = 0x002e
	KeySlash        Key = 0x002f
	KeySemicolon    Key = 0x003b
	KeyEqual        Key = 0x003d
	KeyBracketLeft  Key = 0x005b
	KeyBackslash    Key = 0x005c
	KeyBracketRight Key = 0x005d
	KeyGrave        Key = 0x0060

	KeyISOLevel3Shift Key = 0xfe03

	KeyBackSpace Key = 0xff08
	KeyTab       Key = 0xff09
	KeyReturn    Key = 0xff0d
	KeyPause     Key = 0xff13
	KeyScrollLck Key = 0xff14
	KeyEscape    Key = 0xff1b
	KeyHome      Key = 0xff50
	KeyLeft      Key = 0xff51
	KeyUp        Key = 0xff52
	KeyRight     Key = 0xff53
	KeyDown      Key = 0xff54
	KeyPrior     Key = 0xff55
	KeyNext      Key = 0xff56
	KeyEnd       Key = 0xff57
	KeyPrint     Key = 0xff61
	KeyInsert    Key = 0xff63
	KeyMenu      Key = 0xff67
	KeyNumLock   Key = 0xff7f

	KeyKPEnter    Key = 0xff8d
	KeyKPMultiply Key = 0xffaa
	KeyKPAdd      Key = 0xffab
	KeyKPSubtract Key = 0xffad
	KeyKPDecimal  Key = 0xffae
	KeyKPDivide   Key = 0xffaf
	KeyKP0        Key = 0xffb0

	KeyF1 Key = 0xffbe

	KeyShiftL   Key = 0xffe1
	KeyShiftR   Key = 0xffe2
	KeyControlL Key = 0xffe3
	KeyControlR Key = 0xffe4
	KeyCapsLock Key = 0xffe5
	KeyMetaL    Key = 0xffe7
	KeyMetaR    Key = 0xffe8
	KeyAltL     Key = 0xffe9
	KeyAltR     Key = 0xffea
	KeySuperL   Key = 0xffeb
	KeySuperR   Key = 0xffec
	KeyHyperL   Key = 0xffed
	KeyHyperR   Key = 0xffee
	KeyDelete   Key = 0xffff
)

var namedKeys = map[string]Key{
	"space":            KeySpace,
	"apostrophe":       KeyApostrophe,
	"plus":             KeyPlus,
	"comma":            KeyComma,
	"minus":            KeyMinus,
	"period":           KeyPeriod,
	"slash":            KeySlash,
	"semicolon":        KeySemicolon,
	"equal":            KeyEqual,
	"bracketleft":      KeyBracketLeft,
	"backslash":        KeyBackslash,
	"bracketright":     KeyBracketRight,
	"grave":            KeyGrave,
	"ISO_Level3_Shift": KeyISOLevel3Shift,
	"BackSpace":        KeyBackSpace,
	"Tab":              KeyTab,
	"Return":           KeyReturn,
	"Pause":            KeyPause,
	"Scroll_Lock":      KeyScrollLck,
	"Escape":           KeyEscape,
	"Home":             KeyHome,
	"Left":             KeyLeft,
	"Up":               KeyUp,
	"Right":            KeyRight,
	"Down":             KeyDown,
	"Prior":            KeyPrior,
	"Next":             KeyNext,
	"End":              KeyEnd,
	"Print":            KeyPrint,
	"Insert":           KeyInsert,
	"Menu":             KeyMenu,
	"Num_Lock":         KeyNumLock,
	"KP_Enter":         KeyKPEnter,
	"KP_Multiply":      KeyKPMultiply,
	"KP_Add":           KeyKPAdd,
	"KP_Subtract":      KeyKPSubtract,
	"KP_Decimal":       KeyKPDecimal,
	"KP_Divide":        KeyKPDivide,
	"Shift_L":          KeyShiftL,
	"Shift_R":          KeyShiftR,
	"Control_L":        KeyControlL,
	"Control_R":        KeyControlR,
	"Caps_Lock":        KeyCapsLock,
	"Meta_L":           KeyMetaL,
	"Meta_R":           KeyMetaR,
	"Alt_L":            KeyAltL,
	"Alt_R":            KeyAltR,
	"Super_L":          KeySuperL,
	"Super_R":          KeySuperR,
	"Hyper_L":          KeyHyperL,
	"Hyper_R":          KeyHyperR,
	"Delete":           KeyDelete,
}

// aliases accepted in configuration files
var keyAliases = map[string]string{
	"esc":       "Escape",
	"enter":     "Return",
	"backspace": "BackSpace",
	"pageup":    "Prior",
	"page_up":   "Prior",
	"pagedown":  "Next",
	"page_down": "Next",
	"altgr":     "ISO_Level3_Shift",
	"shift":     "Shift_L",
	"ctrl":      "Control_L",
	"control":   "Control_L",
	"alt":       "Alt_L",
	"super":     "Super_L",
}

var keyNames map[Key]string

func init() {
	for c := 'a'; c <= 'z'; c++ {
		namedKeys[string(c)] = Key(c)
		namedKeys[string(c-'a'+'A')] = Key(c - 'a' + 'A')
	}
	for c := '0'; c <= '9'; c++ {
		namedKeys[string(c)] = Key(c)
		namedKeys["KP_"+string(c)] = KeyKP0 + Key(c-'0')
	}
	for i := 0; i < 12; i++ {
		namedKeys["F"+strconv.Itoa(i+1)] = KeyF1 + Key(i)
	}

	keyNames = make(map[Key]string, len(namedKeys))
	for name, k := range namedKeys {
		keyNames[k] = name
	}
}

// ParseKey resolves a keysym name such as "space", "a", "Escape" or
// "ISO_Level3_Shift". Hexadecimal keysyms ("0xff1b") are accepted too.
func ParseKey(name string) (Key, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnknownKey)
	}
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	lower := strings.ToLower(name)
	if alias, ok := keyAliases[lower]; ok {
		return namedKeys[alias], nil
	}
	if len(name) > 1 {
		for n, k := range namedKeys {
			if len(n) > 1 && strings.EqualFold(n, name) {
				return k, nil
			}
		}
	}
	if strings.HasPrefix(lower, "0x") {
		v, err := strconv.ParseUint(lower[2:], 16, 32)
		if err == nil {
			return Key(v), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// KeyName returns the keysym name of k, or its hex form when unnamed.
func KeyName(k Key) string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint32(k))
}
