//go:build darwin || linux

package hotkey

import (
	"testing"

	"golang.design/x/hotkey"
)

func TestToNative(t *testing.T) {
	tests := []struct {
		in       string
		wantKey  hotkey.Key
		wantMods int
	}{
		{"Alt+X", hotkey.KeyX, 1},
		{"Ctrl+Shift+5", hotkey.Key5, 2},
		{"Ctrl+Alt+Shift+Super+F12", hotkey.KeyF12, 4},
		{"Super+Space", hotkey.KeySpace, 1},
		{"Option+Escape", hotkey.KeyEscape, 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			acc, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			mods, key, err := toNative(acc)
			if err != nil {
				t.Fatalf("toNative(%q) error = %v", tt.in, err)
			}
			if key != tt.wantKey {
				t.Errorf("key = %v, want %v", key, tt.wantKey)
			}
			if len(mods) != tt.wantMods {
				t.Errorf("got %d modifiers, want %d", len(mods), tt.wantMods)
			}
		})
	}
}

func TestToNative_ControlAndShiftOrder(t *testing.T) {
	acc, err := Parse("Shift+Ctrl+A")
	if err != nil {
		t.Fatal(err)
	}
	mods, _, err := toNative(acc)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 || mods[0] != hotkey.ModCtrl || mods[1] != hotkey.ModShift {
		t.Errorf("mods = %v, want [ModCtrl ModShift]", mods)
	}
}

func TestToNative_UnboundKey(t *testing.T) {
	acc, err := Parse("Ctrl+Home")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := toNative(acc); err == nil {
		t.Error("Home has no native binding and must be rejected")
	}
}

func TestNativeBackend_UnregisterUnknownID(t *testing.T) {
	b := newBackend(func(int) {}, nil).(*nativeBackend)
	b.unregister(42)
	b.close()
}
