package wailshost

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"sonacove/internal/bridge"
	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/testutils"
)

type fakeLauncher struct {
	opts []host.WindowOptions
	err  error
}

func (f *fakeLauncher) CreateWindow(opts host.WindowOptions) (host.Window, error) {
	f.opts = append(f.opts, opts)
	return nil, f.err
}

type fakeHotkeys struct {
	registered map[string]func()
}

func (f *fakeHotkeys) Register(accelerator string, fn func()) error {
	f.registered[accelerator] = fn
	return nil
}

func (f *fakeHotkeys) Unregister(accelerator string) { delete(f.registered, accelerator) }

func noMonitors() ([]geometry.Display, error) { return nil, stderrors.New("none") }

func TestLayoutScreens(t *testing.T) {
	screens := []runtime.Screen{
		{Width: 1280, Height: 1024},
		{Width: 1920, Height: 1080, IsPrimary: true},
		{Width: 2560, Height: 1440},
	}
	want := []geometry.Display{
		{ID: "screen-0", Label: "screen-0", Bounds: geometry.Rect{Width: 1920, Height: 1080}, Primary: true},
		{ID: "screen-1", Label: "screen-1", Bounds: geometry.Rect{X: 1920, Width: 1280, Height: 1024}},
		{ID: "screen-2", Label: "screen-2", Bounds: geometry.Rect{X: 3200, Width: 2560, Height: 1440}},
	}

	got := layoutScreens(screens)
	if len(got) != len(want) {
		t.Fatalf("layoutScreens() returned %d displays, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("display %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if len(layoutScreens(nil)) != 0 {
		t.Error("no screens should give no displays")
	}
}

func TestAccepted(t *testing.T) {
	tests := []struct {
		choice string
		want   bool
	}{
		{"Leave", true},
		{"Yes", true},
		{"Stay", false},
		{"No", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.choice, func(t *testing.T) {
			if got := accepted(tt.choice, "Leave"); got != tt.want {
				t.Errorf("accepted(%q) = %v, want %v", tt.choice, got, tt.want)
			}
		})
	}
}

func TestHost_Displays(t *testing.T) {
	native := []geometry.Display{{ID: `\\.\DISPLAY1`, Bounds: geometry.Rect{X: -1920, Width: 1920, Height: 1080}}}
	h := New(Options{Monitors: func() ([]geometry.Display, error) { return native, nil }, Logger: &testutils.RecordingLogger{}})
	if got := h.Displays(); len(got) != 1 || got[0] != native[0] {
		t.Errorf("Displays() = %v, want native monitors", got)
	}

	// without native monitors and before startup there is nothing to report
	h = New(Options{Monitors: noMonitors, Logger: &testutils.RecordingLogger{}})
	if got := h.Displays(); got != nil {
		t.Errorf("Displays() before startup = %v", got)
	}
}

func TestHost_Delegation(t *testing.T) {
	launcher := &fakeLauncher{err: errors.HandleUnavailable("spawn_overlay", "process", "boom")}
	hotkeys := &fakeHotkeys{registered: map[string]func(){}}
	h := New(Options{Launcher: launcher, Hotkeys: hotkeys, Monitors: noMonitors, Logger: &testutils.RecordingLogger{}})

	if _, err := h.CreateWindow(host.WindowOptions{Title: "Sonacove Annotations"}); !errors.IsUnavailable(err) {
		t.Errorf("CreateWindow() = %v", err)
	}
	if len(launcher.opts) != 1 || launcher.opts[0].Title != "Sonacove Annotations" {
		t.Errorf("launcher saw %+v", launcher.opts)
	}

	if err := h.RegisterHotkey("Alt+X", func() {}); err != nil {
		t.Fatal(err)
	}
	h.UnregisterHotkey("Alt+X")
	if len(hotkeys.registered) != 0 {
		t.Errorf("hotkeys left registered: %v", hotkeys.registered)
	}
}

func TestHost_Unconfigured(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	h := New(Options{Monitors: noMonitors, Logger: logger})

	if _, err := h.CreateWindow(host.WindowOptions{}); !errors.IsUnavailable(err) {
		t.Errorf("CreateWindow() without launcher = %v", err)
	}
	if err := h.RegisterHotkey("Alt+X", func() {}); !errors.IsUnavailable(err) {
		t.Errorf("RegisterHotkey() without manager = %v", err)
	}
	h.UnregisterHotkey("Alt+X")

	if err := h.OpenExternal("https://example.com"); !errors.IsUnavailable(err) {
		t.Errorf("OpenExternal() before startup = %v", err)
	}
	if h.Confirm("Leave Meeting?", "Are you sure?", "Leave", "Stay") {
		t.Error("Confirm() before startup must decline")
	}
	h.Message("About Sonacove", "Version: dev")
	if len(logger.Calls("WARN")) != 2 {
		t.Errorf("expected two warnings, got %+v", logger.All())
	}
}

func TestMainWindow_BeforeStartup(t *testing.T) {
	h := New(Options{Title: "Sonacove", Monitors: noMonitors, Logger: &testutils.RecordingLogger{}})
	w := h.Main()

	if w.ID() != MainID || w.Title() != "Sonacove" {
		t.Errorf("identity = %q %q", w.ID(), w.Title())
	}
	if err := w.LoadURL("https://app.example.com"); !stderrors.Is(err, host.ErrDestroyed) {
		t.Errorf("LoadURL() before startup = %v", err)
	}
	if !w.Bounds().Empty() || w.IsMinimized() || w.IsMaximized() {
		t.Error("unattached window should report no geometry")
	}
	w.Show()
	w.Focus()
	w.Restore()
	w.Reload()
}

func TestMainWindow_Send(t *testing.T) {
	w := newMainWindow("Sonacove", &testutils.RecordingLogger{})

	if err := w.Send(bridge.ChannelShowOverlay); !errors.IsPermission(err) {
		t.Errorf("Send(inbound-only channel) = %v, want permission error", err)
	}
	if err := w.Send(bridge.ChannelNotifyOverlayClosed, make(chan int)); !errors.IsValidation(err) {
		t.Errorf("Send(unencodable) = %v, want validation error", err)
	}
	if err := w.Send(bridge.ChannelNotifyOverlayClosed, map[string]any{"reason": "manual"}); !stderrors.Is(err, host.ErrDestroyed) {
		t.Errorf("Send() before startup = %v", err)
	}
}

func TestMainWindow_Callbacks(t *testing.T) {
	w := newMainWindow("Sonacove", &testutils.RecordingLogger{})

	loads := 0
	w.OnDidFinishLoad(func() { loads++ })
	w.handleLoaded()
	w.handleLoaded()
	if loads != 2 {
		t.Errorf("load callback fired %d times, want 2", loads)
	}

	var got []bridge.Message
	w.handleInbound(bridge.Message{Channel: bridge.ChannelNavToHome})
	w.OnInbound(func(sender host.Window, msg bridge.Message) {
		if sender != w {
			t.Errorf("sender = %v", sender)
		}
		got = append(got, msg)
	})
	w.handleInbound(bridge.Message{Channel: bridge.ChannelNavToHome})
	if len(got) != 1 {
		t.Errorf("inbound delivered %d times, want 1", len(got))
	}

	closed := 0
	w.OnClosed(func() { closed++ })
	w.MarkClosed()
	w.MarkClosed()
	if closed != 1 || !w.IsDestroyed() {
		t.Errorf("closed=%d destroyed=%v", closed, w.IsDestroyed())
	}

	w.SetURL("https://app.example.com/meet/room")
	if w.URL() != "https://app.example.com/meet/room" {
		t.Errorf("URL() = %q", w.URL())
	}
}

func TestAssetHandler(t *testing.T) {
	srv := httptest.NewServer(AssetHandler(bridge.Main()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var manifest struct {
		Name     string   `json:"name"`
		Inbound  []string `json:"inbound"`
		Outbound []string `json:"outbound"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		t.Fatal(err)
	}
	if manifest.Name != "main" || len(manifest.Inbound) != 12 || len(manifest.Outbound) != 5 {
		t.Errorf("manifest = %+v", manifest)
	}

	missing, err := http.Get(srv.URL + "/nope.js")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unknown asset status = %d", missing.StatusCode)
	}
}
