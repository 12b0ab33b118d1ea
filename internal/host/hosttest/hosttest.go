// Package hosttest provides in-memory host.Host and host.Window fakes that
// record every call.
package hosttest

import (
	"fmt"
	"sync"

	"sonacove/internal/geometry"
	"sonacove/internal/host"
)

// Sent is one message delivered through Window.Send
type Sent struct {
	Channel string
	Args    []any
}

// Window is a fake host.Window
type Window struct {
	mu sync.Mutex

	id     string
	title  string
	url    string
	bounds geometry.Rect

	Options host.WindowOptions

	minimized         bool
	destroyed         bool
	ignoreMouse       bool
	contentProtection bool
	alwaysOnTop       bool
	allWorkspaces     bool
	fullScreen        bool
	skipTaskbar       bool

	shows, focuses, restores, reloads int
	loads                             []string
	sent                              []Sent

	finishLoad []func()
	closed     []func()

	// Injected failures
	ContentProtectionErr error
	LoadErr              error
}

// NewWindow creates a fake window showing url
func NewWindow(id, title, url string, bounds geometry.Rect) *Window {
	return &Window{id: id, title: title, url: url, bounds: bounds}
}

func (w *Window) ID() string    { return w.id }
func (w *Window) Title() string { return w.title }

func (w *Window) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *Window) Bounds() geometry.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *Window) LoadURL(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return host.ErrDestroyed
	}
	if w.LoadErr != nil {
		return w.LoadErr
	}
	w.url = url
	w.loads = append(w.loads, url)
	return nil
}

func (w *Window) Reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloads++
}

func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shows++
}

func (w *Window) Focus() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focuses++
}

func (w *Window) Restore() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.restores++
	w.minimized = false
}

func (w *Window) IsMinimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *Window) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Destroy marks the window destroyed and fires the closed callbacks
// synchronously, outside the window lock
func (w *Window) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	callbacks := append([]func(){}, w.closed...)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (w *Window) Send(channel string, args ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return host.ErrDestroyed
	}
	w.sent = append(w.sent, Sent{Channel: channel, Args: args})
	return nil
}

func (w *Window) SetIgnoreMouseEvents(ignore bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignoreMouse = ignore
	return nil
}

func (w *Window) SetContentProtection(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ContentProtectionErr != nil {
		return w.ContentProtectionErr
	}
	w.contentProtection = enabled
	return nil
}

func (w *Window) SetAlwaysOnTop(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alwaysOnTop = enabled
	return nil
}

func (w *Window) SetVisibleOnAllWorkspaces(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allWorkspaces = enabled
	return nil
}

func (w *Window) SetFullScreen(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fullScreen = enabled
	return nil
}

func (w *Window) SetSkipTaskbar(skip bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.skipTaskbar = skip
	return nil
}

func (w *Window) OnDidFinishLoad(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finishLoad = append(w.finishLoad, fn)
}

func (w *Window) OnClosed(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = append(w.closed, fn)
}

// FinishLoad fires the did-finish-load callbacks
func (w *Window) FinishLoad() {
	w.mu.Lock()
	callbacks := append([]func(){}, w.finishLoad...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

// Minimize puts the fake into the minimized state
func (w *Window) Minimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = true
}

// SetURL changes the location without recording a load, as in-page navigation would
func (w *Window) SetURL(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.url = url
}

// Sent returns messages delivered on channel, or all messages when channel is empty
func (w *Window) Sent(channel string) []Sent {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Sent
	for _, s := range w.sent {
		if channel == "" || s.Channel == channel {
			out = append(out, s)
		}
	}
	return out
}

func (w *Window) Loads() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.loads...)
}

// Counts returns how often Show, Focus, Restore and Reload were called
func (w *Window) Counts() (shows, focuses, restores, reloads int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shows, w.focuses, w.restores, w.reloads
}

// Flags reports the OS-level window flags last applied
func (w *Window) Flags() (ignoreMouse, contentProtection, alwaysOnTop, allWorkspaces, fullScreen bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignoreMouse, w.contentProtection, w.alwaysOnTop, w.allWorkspaces, w.fullScreen
}

// SkipsTaskbar reports whether the window was taken out of the taskbar
func (w *Window) SkipsTaskbar() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipTaskbar
}

// ConfirmCall records one Confirm prompt
type ConfirmCall struct {
	Title, Message, Accept, Reject string
}

// MessageCall records one informational dialog
type MessageCall struct {
	Title, Message string
}

// Host is a fake host.Host
type Host struct {
	mu sync.Mutex

	PlatformName string
	Screens      []geometry.Display

	// Injected behaviour
	CreateErr     error
	HotkeyErr     error
	OpenErr       error
	ConfirmAnswer bool
	// OnCreate, when set, adjusts each window before it is returned
	OnCreate func(*Window)

	created    []*Window
	hotkeys    map[string]func()
	registers  int
	unregister int
	opened     []string
	confirms   []ConfirmCall
	messages   []MessageCall
}

// New creates a fake host with one 1920x1080 primary display
func New(platform string) *Host {
	return &Host{
		PlatformName: platform,
		Screens: []geometry.Display{
			{ID: "1", Label: "Built-in", Bounds: geometry.Rect{Width: 1920, Height: 1080}, Primary: true},
		},
		hotkeys: make(map[string]func()),
	}
}

func (h *Host) CreateWindow(opts host.WindowOptions) (host.Window, error) {
	h.mu.Lock()
	if h.CreateErr != nil {
		h.mu.Unlock()
		return nil, h.CreateErr
	}
	w := NewWindow(fmt.Sprintf("win-%d", len(h.created)+1), opts.Title, opts.URL, opts.Bounds)
	w.Options = opts
	h.created = append(h.created, w)
	onCreate := h.OnCreate
	h.mu.Unlock()

	if onCreate != nil {
		onCreate(w)
	}
	return w, nil
}

func (h *Host) Displays() []geometry.Display {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]geometry.Display(nil), h.Screens...)
}

func (h *Host) RegisterHotkey(accelerator string, fn func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registers++
	if h.HotkeyErr != nil {
		return h.HotkeyErr
	}
	if _, taken := h.hotkeys[accelerator]; taken {
		return fmt.Errorf("hotkey %s already registered", accelerator)
	}
	h.hotkeys[accelerator] = fn
	return nil
}

func (h *Host) UnregisterHotkey(accelerator string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregister++
	delete(h.hotkeys, accelerator)
}

func (h *Host) OpenExternal(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return h.OpenErr
	}
	h.opened = append(h.opened, url)
	return nil
}

func (h *Host) Confirm(title, message, accept, reject string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirms = append(h.confirms, ConfirmCall{title, message, accept, reject})
	return h.ConfirmAnswer
}

func (h *Host) Message(title, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, MessageCall{title, message})
}

func (h *Host) Platform() string { return h.PlatformName }

// Created returns every window created so far
func (h *Host) Created() []*Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Window(nil), h.created...)
}

// HotkeyActive reports whether accelerator is currently registered
func (h *Host) HotkeyActive(accelerator string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.hotkeys[accelerator]
	return ok
}

// PressHotkey invokes the handler registered for accelerator
func (h *Host) PressHotkey(accelerator string) bool {
	h.mu.Lock()
	fn, ok := h.hotkeys[accelerator]
	h.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

// HotkeyCalls returns the number of register and unregister calls
func (h *Host) HotkeyCalls() (registers, unregisters int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registers, h.unregister
}

func (h *Host) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.opened...)
}

func (h *Host) Confirms() []ConfirmCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ConfirmCall(nil), h.confirms...)
}

func (h *Host) Messages() []MessageCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]MessageCall(nil), h.messages...)
}

var (
	_ host.Host   = (*Host)(nil)
	_ host.Window = (*Window)(nil)
)
