package hotkey

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantMods Modifier
		wantKey  uint32
		wantName string
	}{
		{"Alt+X", ModAlt, 'X', "Alt+X"},
		{"alt+x", ModAlt, 'X', "Alt+X"},
		{" Ctrl + Shift + 5 ", ModControl | ModShift, '5', "Ctrl+Shift+5"},
		{"CommandOrControl+Shift+A", ModControl | ModShift, 'A', "Ctrl+Shift+A"},
		{"Shift+Alt+F12", ModAlt | ModShift, 0x7B, "Alt+Shift+F12"},
		{"Ctrl+F1", ModControl, 0x70, "Ctrl+F1"},
		{"Super+space", ModSuper, 0x20, "Super+Space"},
		{"Option+Escape", ModAlt, 0x1B, "Alt+Escape"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got.Modifiers != tt.wantMods || got.Key != tt.wantKey || got.Name != tt.wantName {
				t.Errorf("Parse(%q) = %+v, want mods=%v key=%#x name=%q", tt.in, got, tt.wantMods, tt.wantKey, tt.wantName)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "X", "Alt+", "Hyper+X", "Alt+F25", "Alt+F0", "Alt+F1x", "Alt+ü", "Alt+XY"} {
		t.Run(in, func(t *testing.T) {
			if _, err := Parse(in); err == nil {
				t.Errorf("Parse(%q) should fail", in)
			}
		})
	}
}

func TestParse_EquivalentSpellingsShareName(t *testing.T) {
	a, _ := Parse("Shift+Ctrl+K")
	b, _ := Parse("control+shift+k")
	if a.Name != b.Name {
		t.Errorf("names differ: %q vs %q", a.Name, b.Name)
	}
}
