package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestMainBridge_AllowList(t *testing.T) {
	b := Main()

	for _, channel := range []string{
		ChannelToggleAnnotation, ChannelOpenExternal, ChannelJitsiOpenURL, ChannelShowOverlay,
		ChannelSetIgnoreMouseEvents, ChannelScreenshareStop, ChannelNavToHome,
		ChannelShowAboutDialog, ChannelCheckForUpdates, ChannelOpenHelpDocs,
		ChannelPosthogCapture, ChannelLocationChanged,
	} {
		if !b.AllowsInbound(channel) {
			t.Errorf("main bridge should accept inbound %q", channel)
		}
	}
	for _, channel := range []string{"protocol-data-msg", "", "shell-exec", ChannelNotifyOverlayClosed} {
		if b.AllowsInbound(channel) {
			t.Errorf("main bridge should reject inbound %q", channel)
		}
	}
	if !b.AllowsOutbound(ChannelNotifyOverlayClosed) || !b.AllowsOutbound(ChannelAuthTokenReceived) {
		t.Error("main bridge should allow its outbound notifications")
	}
}

func TestOverlayBridge_OnlyClickThrough(t *testing.T) {
	b := Overlay()

	if got := b.Inbound(); len(got) != 1 || got[0] != ChannelSetIgnoreMouseEvents {
		t.Errorf("overlay inbound = %v", got)
	}
	if got := b.Outbound(); len(got) != 1 || got[0] != ChannelToggleClickThrough {
		t.Errorf("overlay outbound = %v", got)
	}
	for _, channel := range []string{ChannelToggleAnnotation, ChannelOpenExternal, ChannelNavToHome} {
		if b.AllowsInbound(channel) {
			t.Errorf("overlay bridge must not accept %q", channel)
		}
	}
}

func TestNilBridgeAllowsNothing(t *testing.T) {
	var b *Bridge
	if b.AllowsInbound(ChannelShowOverlay) || b.AllowsOutbound(ChannelToggleClickThrough) {
		t.Error("nil bridge should deny everything")
	}
}

func TestMessage_Accessors(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"channel":"x","args":[true,"https://a.example",{"sharerId":"p1"},12,null]}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := msg.Bool(0); !ok || !v {
		t.Errorf("Bool(0) = %v, %v", v, ok)
	}
	if _, ok := msg.Bool(1); ok {
		t.Error("Bool(1) should reject a string")
	}
	if v, ok := msg.String(1); !ok || v != "https://a.example" {
		t.Errorf("String(1) = %q, %v", v, ok)
	}
	if _, ok := msg.String(0); ok {
		t.Error("String(0) should reject a bool")
	}

	var payload struct {
		SharerID string `json:"sharerId"`
	}
	if err := msg.Decode(2, &payload); err != nil || payload.SharerID != "p1" {
		t.Errorf("Decode(2) = %v, %+v", err, payload)
	}
	if err := msg.Decode(9, &payload); err == nil {
		t.Error("Decode of a missing argument should fail")
	}

	kinds := []string{"bool", "string", "object", "number", "null", ""}
	for i, want := range kinds {
		if got := msg.Kind(i); got != want {
			t.Errorf("Kind(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(ChannelNotifyOverlayClosed, map[string]any{"reason": "manual"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.Len() != 1 || msg.Kind(0) != "object" {
		t.Errorf("unexpected envelope %+v", msg)
	}
	if _, err := NewMessage("x", make(chan int)); err == nil {
		t.Error("expected an encoding error for a channel value")
	}
}

func TestFromEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    []any
		want    string
		wantLen int
		ok      bool
	}{
		{"decoded object", []any{map[string]any{"channel": ChannelShowOverlay, "args": []any{map[string]any{"sharerId": "p1"}}}}, ChannelShowOverlay, 1, true},
		{"no args", []any{map[string]any{"channel": ChannelNavToHome}}, ChannelNavToHome, 0, true},
		{"empty", nil, "", 0, false},
		{"missing channel", []any{map[string]any{"args": []any{true}}}, "", 0, false},
		{"wrong shape", []any{"toggle-annotation"}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := FromEvent(tt.data)
			if ok != tt.ok || msg.Channel != tt.want || msg.Len() != tt.wantLen {
				t.Errorf("FromEvent() = %+v, %v", msg, ok)
			}
		})
	}
}

func TestManifest(t *testing.T) {
	raw, err := Overlay().Manifest()
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	want := `{"name":"overlay","inbound":["set-ignore-mouse-events"],"outbound":["toggle-click-through-request"]}`
	if string(raw) != want {
		t.Errorf("Manifest() = %s, want %s", raw, want)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("// bridge"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")

	tests := []struct {
		name     string
		files    []string
		expected string
		found    bool
	}{
		{"nothing present", nil, "", false},
		{"fallback only", []string{filepath.Join(first, FallbackScriptName)}, filepath.Join(first, FallbackScriptName), true},
		{
			"preferred name wins over earlier directory",
			[]string{filepath.Join(first, FallbackScriptName), filepath.Join(second, OverlayScriptName)},
			filepath.Join(second, OverlayScriptName),
			true,
		},
		{
			"earlier directory wins for same name",
			[]string{filepath.Join(first, OverlayScriptName), filepath.Join(second, OverlayScriptName)},
			filepath.Join(first, OverlayScriptName),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.RemoveAll(first)
			os.RemoveAll(second)
			for _, f := range tt.files {
				writeFile(t, f)
			}

			got, ok := Locate([]string{first, "", second}, []string{OverlayScriptName, FallbackScriptName})
			if ok != tt.found || got != tt.expected {
				t.Errorf("Locate() = %q, %v; want %q, %v", got, ok, tt.expected, tt.found)
			}
		})
	}
}

func TestLocate_SkipsDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, OverlayScriptName), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := Locate([]string{root}, []string{OverlayScriptName}); ok {
		t.Error("a directory named like the script must not match")
	}
}

func TestOverlayScriptCandidates(t *testing.T) {
	dirs, names := OverlayScriptCandidates("/opt/sonacove", "/home/u/src")

	wantDirs := []string{
		"/opt/sonacove",
		filepath.Join("/opt/sonacove", "frontend", "bridge"),
		filepath.Join("/opt", "Resources"),
		filepath.Join("/home/u/src", "frontend", "bridge"),
		filepath.Join("/home/u/src", "build"),
	}
	if len(dirs) != len(wantDirs) {
		t.Fatalf("got %d dirs, want %d", len(dirs), len(wantDirs))
	}
	for i := range wantDirs {
		if dirs[i] != wantDirs[i] {
			t.Errorf("dirs[%d] = %q, want %q", i, dirs[i], wantDirs[i])
		}
	}
	if len(names) != 2 || names[0] != OverlayScriptName || names[1] != FallbackScriptName {
		t.Errorf("filenames = %v", names)
	}
}
