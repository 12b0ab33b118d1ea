package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of held modifier keys
type Modifier uint32

// Values match the Win32 MOD_* constants
const (
	ModAlt     Modifier = 0x0001
	ModControl Modifier = 0x0002
	ModShift   Modifier = 0x0004
	ModSuper   Modifier = 0x0008
)

// Accelerator is a parsed shortcut such as "Alt+X"
type Accelerator struct {
	Modifiers Modifier
	Key       uint32 // Windows virtual-key code
	Name      string // canonical spelling
}

var modifierNames = map[string]Modifier{
	"alt":              ModAlt,
	"option":           ModAlt,
	"ctrl":             ModControl,
	"control":          ModControl,
	"cmdorctrl":        ModControl,
	"commandorcontrol": ModControl,
	"shift":            ModShift,
	"super":            ModSuper,
	"meta":             ModSuper,
	"cmd":              ModSuper,
	"command":          ModSuper,
	"win":              ModSuper,
}

var namedKeys = map[string]uint32{
	"space":     0x20,
	"enter":     0x0D,
	"return":    0x0D,
	"tab":       0x09,
	"esc":       0x1B,
	"escape":    0x1B,
	"backspace": 0x08,
	"delete":    0x2E,
	"insert":    0x2D,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"up":        0x26,
	"down":      0x28,
	"left":      0x25,
	"right":     0x27,
}

// Parse reads an accelerator written as modifiers and one key joined by "+".
// Matching is case-insensitive and at least one modifier is required so a
// global shortcut never swallows plain typing.
func Parse(s string) (Accelerator, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	if len(parts) < 2 {
		return Accelerator{}, fmt.Errorf("accelerator %q needs a modifier and a key", s)
	}

	var acc Accelerator
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return Accelerator{}, fmt.Errorf("accelerator %q: unknown modifier %q", s, part)
		}
		acc.Modifiers |= mod
	}

	keyName := strings.TrimSpace(parts[len(parts)-1])
	key, ok := keyCode(keyName)
	if !ok {
		return Accelerator{}, fmt.Errorf("accelerator %q: unknown key %q", s, keyName)
	}
	acc.Key = key
	acc.Name = acc.canonical(keyName)
	return acc, nil
}

func keyCode(name string) (uint32, bool) {
	lower := strings.ToLower(name)
	if len(lower) == 1 {
		c := lower[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint32(c - 'a' + 'A'), true
		case c >= '0' && c <= '9':
			return uint32(c), true
		}
	}
	if code, ok := namedKeys[lower]; ok {
		return code, true
	}
	var n int
	if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && n >= 1 && n <= 24 && lower == fmt.Sprintf("f%d", n) {
		return uint32(0x70 + n - 1), true
	}
	return 0, false
}

func (a Accelerator) canonical(key string) string {
	var parts []string
	if a.Modifiers&ModControl != 0 {
		parts = append(parts, "Ctrl")
	}
	if a.Modifiers&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if a.Modifiers&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if a.Modifiers&ModSuper != 0 {
		parts = append(parts, "Super")
	}
	if len(key) == 1 {
		key = strings.ToUpper(key)
	} else {
		key = strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	}
	return strings.Join(append(parts, key), "+")
}
