package wailshost

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"sonacove/internal/bridge"
	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/platform"
)

// Events exchanged with the main shell page
const (
	EventLoad     = "shell:load"
	EventReload   = "shell:reload"
	EventLoaded   = "shell:loaded"
	EventInbound  = "bridge:inbound"
	EventOutbound = "bridge:outbound"
)

// MainID identifies the main window
const MainID = "main"

// MainWindow is the window Wails creates at startup. Its content view is an
// iframe inside the embedded shell page, driven through runtime events.
type MainWindow struct {
	title  string
	bridge *bridge.Bridge
	flags  platform.WindowFlags
	logger logging.Logger

	mu        sync.Mutex
	ctx       context.Context
	url       string
	destroyed bool
	onLoad    []func()
	onClosed  []func()
	onInbound func(host.Window, bridge.Message)
}

var _ host.Window = (*MainWindow)(nil)

func newMainWindow(title string, logger logging.Logger) *MainWindow {
	return &MainWindow{
		title:  title,
		bridge: bridge.Main(),
		flags:  platform.NewWindowFlags(),
		logger: logger,
	}
}

// OnInbound sets the receiver for messages the content view sends
func (w *MainWindow) OnInbound(fn func(sender host.Window, msg bridge.Message)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onInbound = fn
}

func (w *MainWindow) attach(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	runtime.EventsOn(ctx, EventLoaded, func(...interface{}) {
		w.handleLoaded()
	})
	runtime.EventsOn(ctx, EventInbound, func(data ...interface{}) {
		msg, ok := bridge.FromEvent(data)
		if !ok {
			w.logger.Debug("Ignoring malformed main window message")
			return
		}
		w.handleInbound(msg)
	})
}

func (w *MainWindow) handleLoaded() {
	w.mu.Lock()
	callbacks := append([]func(){}, w.onLoad...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (w *MainWindow) handleInbound(msg bridge.Message) {
	w.mu.Lock()
	fn := w.onInbound
	w.mu.Unlock()
	if fn == nil {
		w.logger.Debug("No receiver for main window message", "channel", msg.Channel)
		return
	}
	fn(w, msg)
}

// MarkClosed records that the native window is gone and fires the closed
// callbacks once
func (w *MainWindow) MarkClosed() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	callbacks := append([]func(){}, w.onClosed...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// live returns the runtime context unless the window is gone or not started
func (w *MainWindow) live() (context.Context, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctx, w.ctx != nil && !w.destroyed
}

func (w *MainWindow) ID() string    { return MainID }
func (w *MainWindow) Title() string { return w.title }

func (w *MainWindow) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *MainWindow) Bounds() geometry.Rect {
	ctx, ok := w.live()
	if !ok {
		return geometry.Rect{}
	}
	x, y := runtime.WindowGetPosition(ctx)
	width, height := runtime.WindowGetSize(ctx)
	return geometry.Rect{X: x, Y: y, Width: width, Height: height}
}

// Place moves and resizes the window, maximising it when asked
func (w *MainWindow) Place(bounds geometry.Rect, maximized bool) {
	ctx, ok := w.live()
	if !ok {
		return
	}
	if !bounds.Empty() {
		runtime.WindowSetSize(ctx, bounds.Width, bounds.Height)
		runtime.WindowSetPosition(ctx, bounds.X, bounds.Y)
	}
	if maximized {
		runtime.WindowMaximise(ctx)
	}
}

// IsMaximized reports the maximised state for window-state persistence
func (w *MainWindow) IsMaximized() bool {
	ctx, ok := w.live()
	return ok && runtime.WindowIsMaximised(ctx)
}

func (w *MainWindow) LoadURL(url string) error {
	ctx, ok := w.live()
	if !ok {
		return host.ErrDestroyed
	}
	w.mu.Lock()
	w.url = url
	w.mu.Unlock()
	runtime.EventsEmit(ctx, EventLoad, url)
	return nil
}

// SetURL records the content view's own navigations reported by the page
func (w *MainWindow) SetURL(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.url = url
}

func (w *MainWindow) Reload() {
	if ctx, ok := w.live(); ok {
		runtime.EventsEmit(ctx, EventReload)
	}
}

func (w *MainWindow) Show() {
	if ctx, ok := w.live(); ok {
		runtime.WindowShow(ctx)
	}
}

func (w *MainWindow) Focus() {
	if ctx, ok := w.live(); ok {
		runtime.WindowUnminimise(ctx)
		runtime.WindowShow(ctx)
	}
}

func (w *MainWindow) Restore() {
	if ctx, ok := w.live(); ok {
		runtime.WindowUnminimise(ctx)
	}
}

func (w *MainWindow) IsMinimized() bool {
	ctx, ok := w.live()
	return ok && runtime.WindowIsMinimised(ctx)
}

func (w *MainWindow) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Destroy quits the application, which owns the main window
func (w *MainWindow) Destroy() {
	if ctx, ok := w.live(); ok {
		runtime.Quit(ctx)
	}
}

func (w *MainWindow) Send(channel string, args ...any) error {
	if !w.bridge.AllowsOutbound(channel) {
		return errors.HandlePermissionError("main_send", channel, "send")
	}
	msg, err := bridge.NewMessage(channel, args...)
	if err != nil {
		return errors.HandleValidationError("main_send", "args", channel, err.Error())
	}
	ctx, ok := w.live()
	if !ok {
		return host.ErrDestroyed
	}
	runtime.EventsEmit(ctx, EventOutbound, msg)
	return nil
}

func (w *MainWindow) SetIgnoreMouseEvents(ignore bool) error {
	return w.flags.SetClickThrough(w.title, ignore)
}

func (w *MainWindow) SetContentProtection(enabled bool) error {
	return w.flags.SetCaptureExcluded(w.title, enabled)
}

func (w *MainWindow) SetVisibleOnAllWorkspaces(enabled bool) error {
	return w.flags.SetVisibleOnAllWorkspaces(w.title, enabled)
}

func (w *MainWindow) SetSkipTaskbar(skip bool) error {
	return w.flags.SetSkipTaskbar(w.title, skip)
}

func (w *MainWindow) SetAlwaysOnTop(enabled bool) error {
	ctx, ok := w.live()
	if !ok {
		return host.ErrDestroyed
	}
	runtime.WindowSetAlwaysOnTop(ctx, enabled)
	return nil
}

func (w *MainWindow) SetFullScreen(enabled bool) error {
	ctx, ok := w.live()
	if !ok {
		return host.ErrDestroyed
	}
	if enabled {
		runtime.WindowFullscreen(ctx)
	} else {
		runtime.WindowUnfullscreen(ctx)
	}
	return nil
}

func (w *MainWindow) OnDidFinishLoad(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLoad = append(w.onLoad, fn)
}

func (w *MainWindow) OnClosed(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClosed = append(w.onClosed, fn)
}
