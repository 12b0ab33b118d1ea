package wailshost

import (
	"context"
	goruntime "runtime"
	"strconv"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/platform"
)

// WindowLauncher creates secondary windows; the overlay child launcher in
// production
type WindowLauncher interface {
	CreateWindow(opts host.WindowOptions) (host.Window, error)
}

// Hotkeys registers global accelerators
type Hotkeys interface {
	Register(accelerator string, fn func()) error
	Unregister(accelerator string)
}

// Options configures a Host
type Options struct {
	Title    string
	Launcher WindowLauncher
	Hotkeys  Hotkeys
	Logger   logging.Logger
	// Monitors defaults to platform.Monitors
	Monitors func() ([]geometry.Display, error)
}

// Host implements host.Host on top of the Wails runtime. It is usable once
// Attach has been called from the application's startup hook.
type Host struct {
	launcher WindowLauncher
	hotkeys  Hotkeys
	monitors func() ([]geometry.Display, error)
	logger   logging.Logger
	main     *MainWindow

	mu  sync.RWMutex
	ctx context.Context
}

var _ host.Host = (*Host)(nil)

func New(opts Options) *Host {
	if opts.Monitors == nil {
		opts.Monitors = platform.Monitors
	}
	logger := logging.Named(opts.Logger, "host")
	return &Host{
		launcher: opts.Launcher,
		hotkeys:  opts.Hotkeys,
		monitors: opts.Monitors,
		logger:   logger,
		main:     newMainWindow(opts.Title, logger),
	}
}

// Attach binds the host and its main window to the Wails runtime context
func (h *Host) Attach(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	h.main.attach(ctx)
}

// Main returns the window Wails itself created
func (h *Host) Main() *MainWindow { return h.main }

func (h *Host) context() (context.Context, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx, h.ctx != nil
}

func (h *Host) CreateWindow(opts host.WindowOptions) (host.Window, error) {
	if h.launcher == nil {
		return nil, errors.HandleUnavailable("create_window", "launcher", "no window launcher configured")
	}
	return h.launcher.CreateWindow(opts)
}

// Displays prefers the native monitor list, which carries positions, and
// falls back to the runtime's screens laid out side by side
func (h *Host) Displays() []geometry.Display {
	if displays, err := h.monitors(); err == nil && len(displays) > 0 {
		return displays
	}
	ctx, ok := h.context()
	if !ok {
		return nil
	}
	screens, err := runtime.ScreenGetAll(ctx)
	if err != nil {
		h.logger.Warn("Failed to list screens", "error", err)
		return nil
	}
	return layoutScreens(screens)
}

func (h *Host) RegisterHotkey(accelerator string, fn func()) error {
	if h.hotkeys == nil {
		return errors.HandleUnavailable("register_hotkey", accelerator, "no hotkey manager")
	}
	return h.hotkeys.Register(accelerator, fn)
}

func (h *Host) UnregisterHotkey(accelerator string) {
	if h.hotkeys != nil {
		h.hotkeys.Unregister(accelerator)
	}
}

// OpenExternal hands url to the system browser. Callers vet the scheme.
func (h *Host) OpenExternal(url string) error {
	ctx, ok := h.context()
	if !ok {
		return errors.HandleUnavailable("open_external", "runtime", "not started")
	}
	runtime.BrowserOpenURL(ctx, url)
	return nil
}

func (h *Host) Confirm(title, message, accept, reject string) bool {
	ctx, ok := h.context()
	if !ok {
		h.logger.Warn("Confirm requested before startup", "title", title)
		return false
	}
	choice, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{accept, reject},
		DefaultButton: accept,
		CancelButton:  reject,
	})
	if err != nil {
		h.logger.Warn("Confirm dialog failed", "title", title, "error", err)
		return false
	}
	return accepted(choice, accept)
}

// accepted maps the dialog result onto a decision. Native Windows question
// boxes ignore custom labels and answer "Yes" or "No".
func accepted(choice, accept string) bool {
	return choice == accept || choice == "Yes"
}

func (h *Host) Message(title, message string) {
	ctx, ok := h.context()
	if !ok {
		h.logger.Warn("Message requested before startup", "title", title)
		return
	}
	if _, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
		Type:    runtime.InfoDialog,
		Title:   title,
		Message: message,
	}); err != nil {
		h.logger.Warn("Message dialog failed", "title", title, "error", err)
	}
}

func (h *Host) Platform() string {
	return goruntime.GOOS
}

// layoutScreens places runtime screens left to right starting with the
// primary, since the runtime reports sizes without positions
func layoutScreens(screens []runtime.Screen) []geometry.Display {
	ordered := make([]runtime.Screen, 0, len(screens))
	for _, s := range screens {
		if s.IsPrimary {
			ordered = append(ordered, s)
		}
	}
	for _, s := range screens {
		if !s.IsPrimary {
			ordered = append(ordered, s)
		}
	}

	displays := make([]geometry.Display, 0, len(ordered))
	x := 0
	for i, s := range ordered {
		displays = append(displays, geometry.Display{
			ID:      screenID(i),
			Label:   screenID(i),
			Bounds:  geometry.Rect{X: x, Y: 0, Width: s.Width, Height: s.Height},
			Primary: s.IsPrimary,
		})
		x += s.Width
	}
	return displays
}

func screenID(i int) string {
	return "screen-" + strconv.Itoa(i)
}
