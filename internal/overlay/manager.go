package overlay

import (
	"fmt"
	"sync"
	"time"

	"sonacove/internal/bridge"
	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// Close reasons carried by notify-overlay-closed
const (
	ReasonManual             = "manual"
	ReasonOverlayClosed      = "overlay-closed"
	ReasonScreenshareStopped = "screenshare-stopped"
	ReasonDeepLink           = "deep-link-navigation"
	ReasonShutdown           = "shutdown"
)

const windowTitle = "Sonacove Annotations"

// State is the overlay lifecycle state
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// ClosedNotice is the payload of notify-overlay-closed
type ClosedNotice struct {
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// WhiteboardCleanup is the payload of cleanup-whiteboards-for-viewers
type WhiteboardCleanup struct {
	SharerID string `json:"sharerId"`
	Reason   string `json:"reason"`
}

// Snapshot is a copy of the overlay state for inspection
type Snapshot struct {
	State        State
	Bounds       geometry.Rect
	URL          string
	ClickThrough bool
	HotkeyActive bool
	BridgeScript string
}

// Options configures a Manager
type Options struct {
	Host     host.Host
	Registry *host.Registry
	// Shortcut is the global accelerator that toggles click-through
	Shortcut string
	// LocateScript finds the overlay bridge script; defaults to bridge.LocateOverlayScript
	LocateScript func() (string, bool)
	// Now defaults to time.Now
	Now    func() time.Time
	Logger logging.Logger
}

// Manager owns the single annotation overlay window
type Manager struct {
	host         host.Host
	registry     *host.Registry
	resolver     *geometry.Resolver
	shortcut     string
	locateScript func() (string, bool)
	now          func() time.Time
	logger       logging.Logger

	mu    sync.Mutex
	state State
	win   host.Window
	// gen increments on every transition out of Opening or Open so that
	// callbacks from an earlier window become no-ops
	gen  uint64
	snap Snapshot
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		host:         opts.Host,
		registry:     opts.Registry,
		resolver:     geometry.NewResolver(host.DisplaySource(opts.Host)),
		shortcut:     opts.Shortcut,
		locateScript: opts.LocateScript,
		now:          opts.Now,
		logger:       logging.Named(opts.Logger, "overlay"),
	}
	if m.shortcut == "" {
		m.shortcut = "Alt+X"
	}
	if m.locateScript == nil {
		m.locateScript = bridge.LocateOverlayScript
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the current overlay state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.snap
	s.State = m.state
	return s
}

// Owns reports whether w is the open overlay window
func (m *Manager) Owns(w host.Window) bool {
	if w == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.win != nil && m.win == w
}

// Toggle opens or closes the overlay. Window sharing vetoes everything; an
// explicit disable, or any request without enabled=true while an overlay
// exists, closes it and never falls through into an open.
func (m *Manager) Toggle(hint host.Window, req Request) error {
	if req.IsWindowSharing {
		m.logger.Debug("Ignoring overlay toggle while sharing a single window")
		return nil
	}

	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	active := state == StateOpening || state == StateOpen
	if req.explicitlyDisabled() || (active && !req.explicitlyEnabled()) {
		if active {
			m.Close(true, ReasonManual)
		}
		return nil
	}
	if active {
		// a second explicit open never stacks a window
		if state == StateOpening {
			return errors.NewShellError("toggle_overlay", fmt.Errorf("overlay is still opening"), errors.ErrCodeBusy)
		}
		m.Close(true, ReasonManual)
		return nil
	}

	if err := req.Validate(); err != nil {
		logging.LogShellError(m.logger, err, "toggle_overlay", nil)
		return err
	}
	return m.open(hint, req)
}

func (m *Manager) open(hint host.Window, req Request) error {
	target, err := req.TargetURL()
	if err != nil {
		logging.LogShellError(m.logger, err, "toggle_overlay", nil)
		return err
	}

	m.mu.Lock()
	if m.state != StateClosed {
		m.mu.Unlock()
		return errors.NewShellError("open_overlay", fmt.Errorf("overlay is %s", m.state), errors.ErrCodeBusy)
	}
	m.state = StateOpening
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	started := m.now()
	display := m.targetDisplay(hint)
	if display.Bounds.Empty() {
		m.abort(gen, nil)
		err := errors.HandleNotFound("open_overlay", "display", "")
		logging.LogShellError(m.logger, err, "open_overlay", nil)
		return err
	}

	m.logger.Info("Launching overlay",
		"display", display.Label,
		"bounds", display.Bounds.String(),
	)

	script, found := m.locateScript()
	if !found {
		logging.LogShellError(m.logger,
			errors.HandleUnavailable("open_overlay", "bridge_script", "overlay opens without click-through bridge"),
			"open_overlay", nil)
	}

	platform := m.host.Platform()
	win, err := m.host.CreateWindow(host.WindowOptions{
		Title:        windowTitle,
		Bounds:       display.Bounds,
		Transparent:  true,
		Frameless:    true,
		AlwaysOnTop:  true,
		SkipTaskbar:  true,
		Resizable:    false,
		FullScreen:   platform != host.PlatformDarwin,
		Hidden:       true,
		BridgeScript: script,
	})
	if err != nil {
		m.abort(gen, nil)
		err = errors.WrapErrorWithContext("create_overlay_window", err, map[string]string{"display": display.ID})
		logging.LogShellError(m.logger, err, "open_overlay", nil)
		return err
	}

	// never show an overlay that screen sharing could capture
	if err := win.SetContentProtection(true); err != nil {
		m.abort(gen, win)
		shellErr := errors.NewShellErrorWithContext("open_overlay", err, errors.ErrCodeUnavailable, map[string]string{
			"resource": "capture_exclusion",
			"platform": platform,
		})
		logging.LogShellError(m.logger, shellErr, "open_overlay", nil)
		return shellErr
	}
	m.configurePlatform(win, platform)

	if err := win.LoadURL(target); err != nil {
		m.abort(gen, win)
		err = errors.WrapErrorWithContext("load_overlay_url", err, map[string]string{"url": target})
		logging.LogShellError(m.logger, err, "open_overlay", nil)
		return err
	}

	hotkeyActive := m.registerShortcut(gen)

	win.OnDidFinishLoad(func() {
		if !win.IsDestroyed() {
			win.Show()
			win.Focus()
		}
	})
	win.OnClosed(func() { m.handleClosed(gen) })

	m.mu.Lock()
	if m.gen != gen || m.state != StateOpening {
		// closed while we were opening
		m.mu.Unlock()
		if hotkeyActive {
			m.host.UnregisterHotkey(m.shortcut)
		}
		win.Destroy()
		return nil
	}
	m.state = StateOpen
	m.win = win
	m.snap = Snapshot{
		Bounds:       display.Bounds,
		URL:          target,
		HotkeyActive: hotkeyActive,
		BridgeScript: script,
	}
	m.mu.Unlock()

	logging.LogOperation(m.logger, "open_overlay", m.now().Sub(started), map[string]interface{}{
		"state":  StateOpen.String(),
		"hotkey": hotkeyActive,
	})
	return nil
}

// targetDisplay picks the display of the hinted window, else the current
// main window, else the primary display
func (m *Manager) targetDisplay(hint host.Window) geometry.Display {
	ref := hint
	if ref == nil || ref.IsDestroyed() {
		ref = nil
		if w, ok := m.registry.Current(); ok {
			ref = w
		}
	}
	if ref == nil {
		m.logger.Warn("No main window for overlay placement, using primary display")
		return m.resolver.Primary()
	}
	return m.resolver.DisplayMatching(ref.Bounds())
}

func (m *Manager) configurePlatform(win host.Window, platform string) {
	if err := win.SetAlwaysOnTop(true); err != nil {
		m.logger.Warn("Failed to raise overlay above other windows", "error", err)
	}
	if err := win.SetSkipTaskbar(true); err != nil {
		m.logger.Warn("Failed to hide overlay from the taskbar", "error", err)
	}
	if platform == host.PlatformDarwin {
		if err := win.SetVisibleOnAllWorkspaces(true); err != nil {
			m.logger.Warn("Failed to show overlay on all spaces", "error", err)
		}
		return
	}
	if err := win.SetFullScreen(true); err != nil {
		m.logger.Warn("Failed to make overlay full screen", "error", err)
	}
}

func (m *Manager) registerShortcut(gen uint64) bool {
	m.host.UnregisterHotkey(m.shortcut)
	err := m.host.RegisterHotkey(m.shortcut, func() { m.sendClickThroughToggle(gen) })
	if err != nil {
		shellErr := errors.NewShellErrorWithContext("register_hotkey", err, errors.ErrCodeUnavailable, map[string]string{
			"accelerator": m.shortcut,
		})
		logging.LogShellError(m.logger, shellErr, "open_overlay", nil)
		return false
	}
	return true
}

func (m *Manager) sendClickThroughToggle(gen uint64) {
	m.mu.Lock()
	win := m.win
	live := m.gen == gen && m.state == StateOpen && win != nil
	m.mu.Unlock()

	if !live || win.IsDestroyed() {
		return
	}
	if err := win.Send(bridge.ChannelToggleClickThrough); err != nil {
		m.logger.Warn("Failed to deliver click-through toggle", "error", err)
	}
}

// abort returns an unfinished open to Closed and destroys its window
func (m *Manager) abort(gen uint64, win host.Window) {
	m.mu.Lock()
	if m.gen == gen && m.state == StateOpening {
		m.state = StateClosed
		m.gen++
	}
	m.mu.Unlock()

	if win != nil {
		win.Destroy()
	}
}

// handleClosed runs when the overlay window goes away without Close being
// called, for example the user closing it or its process exiting
func (m *Manager) handleClosed(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || (m.state != StateOpen && m.state != StateOpening) {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.win = nil
	m.gen++
	m.snap = Snapshot{}
	m.mu.Unlock()

	m.host.UnregisterHotkey(m.shortcut)
	m.restoreMainWindow()
	m.sendToMain(bridge.ChannelNotifyOverlayClosed, ClosedNotice{
		Reason:    ReasonOverlayClosed,
		Timestamp: m.now().UnixMilli(),
	})
	m.logger.Info("Overlay closed", "reason", ReasonOverlayClosed)
}

// Close destroys the overlay if one exists. The hotkey is always released
// first. With notify set, the main view receives notify-overlay-closed.
func (m *Manager) Close(notify bool, reason string) {
	m.host.UnregisterHotkey(m.shortcut)

	m.mu.Lock()
	if m.state == StateClosed || m.state == StateClosing {
		m.mu.Unlock()
		return
	}
	win := m.win
	m.state = StateClosing
	m.gen++
	m.mu.Unlock()

	m.logger.Info("Closing overlay", "reason", reason)
	if win != nil {
		win.Destroy()
	}

	m.mu.Lock()
	m.state = StateClosed
	m.win = nil
	m.snap = Snapshot{}
	m.mu.Unlock()

	m.restoreMainWindow()
	if notify {
		m.sendToMain(bridge.ChannelNotifyOverlayClosed, ClosedNotice{
			Reason:    reason,
			Timestamp: m.now().UnixMilli(),
		})
	}
}

// CloseViewersWhiteboards tells the main view to tear down whiteboards tied
// to a screen share that ended. The overlay itself is untouched.
func (m *Manager) CloseViewersWhiteboards(sharerID string) {
	m.sendToMain(bridge.ChannelCleanupViewerWhiteboard, WhiteboardCleanup{
		SharerID: sharerID,
		Reason:   ReasonScreenshareStopped,
	})
}

// BringToFront shows and focuses the overlay. It reports whether one exists.
func (m *Manager) BringToFront() bool {
	m.mu.Lock()
	win := m.win
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || win == nil || win.IsDestroyed() {
		return false
	}
	win.Show()
	win.Focus()
	return true
}

// SetClickThrough applies the OS-level mouse passthrough the overlay page
// asked for and records it
func (m *Manager) SetClickThrough(ignore bool) error {
	m.mu.Lock()
	win := m.win
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || win == nil {
		return errors.HandleNotFound("set_click_through", "overlay_window", "")
	}
	if err := win.SetIgnoreMouseEvents(ignore); err != nil {
		return errors.WrapError("set_click_through", err)
	}

	m.mu.Lock()
	if m.win == win {
		m.snap.ClickThrough = ignore
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) restoreMainWindow() {
	w, ok := m.registry.Current()
	if !ok {
		return
	}
	if w.IsMinimized() {
		w.Restore()
	}
	w.Show()
	w.Focus()
}

func (m *Manager) sendToMain(channel string, payload any) {
	w, ok := m.registry.Current()
	if !ok {
		m.logger.Warn("No main window to notify", "channel", channel)
		return
	}
	if err := w.Send(channel, payload); err != nil {
		m.logger.Warn("Failed to notify main window", "channel", channel, "error", err)
	}
}
