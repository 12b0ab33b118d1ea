package gateway

import (
	"encoding/json"
	"net/url"
	"sync"

	"sonacove/internal/bridge"
	"sonacove/internal/deeplink"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/overlay"
)

// OverlayController is the part of the overlay manager the gateway drives
type OverlayController interface {
	Toggle(hint host.Window, req overlay.Request) error
	BringToFront() bool
	CloseViewersWhiteboards(sharerID string)
	SetClickThrough(ignore bool) error
	Owns(w host.Window) bool
}

// Updater shows the about dialog and runs a manual update check
type Updater interface {
	ShowAbout()
	CheckForUpdates()
}

// HelpDocs opens the product documentation
type HelpDocs interface {
	Open() error
}

// Analytics records a product analytics event
type Analytics interface {
	Capture(event string, properties map[string]any) error
}

// Collaborators are optional services some channels delegate to. A nil
// field turns its channels into logged no-ops.
type Collaborators struct {
	Updater   Updater
	HelpDocs  HelpDocs
	Analytics Analytics
}

// Options configures a Gateway
type Options struct {
	Host          host.Host
	Registry      *host.Registry
	Overlay       OverlayController
	Routes        deeplink.Routes
	Collaborators Collaborators
	// AllowedHost reports hosts whose popups load in the main window
	// instead of the browser. Nil sends every popup to the browser.
	AllowedHost   func(host string) bool
	Logger        logging.Logger
}

// Gateway accepts every inbound content-view message and dispatches it
type Gateway struct {
	host     host.Host
	registry *host.Registry
	overlay  OverlayController
	routes   deeplink.Routes
	collab   Collaborators
	allowed  func(string) bool
	logger   logging.Logger

	mainBridge    *bridge.Bridge
	overlayBridge *bridge.Bridge

	mu   sync.Mutex
	offs []func()
}

func New(opts Options) *Gateway {
	return &Gateway{
		host:          opts.Host,
		registry:      opts.Registry,
		overlay:       opts.Overlay,
		routes:        opts.Routes,
		collab:        opts.Collaborators,
		allowed:       opts.AllowedHost,
		logger:        logging.Named(opts.Logger, "gateway"),
		mainBridge:    bridge.Main(),
		overlayBridge: bridge.Overlay(),
	}
}

func (g *Gateway) handlers() map[string]func(Event) {
	return map[string]func(Event){
		bridge.ChannelToggleAnnotation:     g.onToggleAnnotation,
		bridge.ChannelOpenExternal:         g.onOpenExternal,
		bridge.ChannelJitsiOpenURL:         g.onJitsiOpenURL,
		bridge.ChannelShowOverlay:          g.onShowOverlay,
		bridge.ChannelSetIgnoreMouseEvents: g.onSetIgnoreMouseEvents,
		bridge.ChannelScreenshareStop:      g.onScreenshareStop,
		bridge.ChannelNavToHome:            g.onNavToHome,
		bridge.ChannelShowAboutDialog:      g.onShowAbout,
		bridge.ChannelCheckForUpdates:      g.onCheckForUpdates,
		bridge.ChannelOpenHelpDocs:         g.onOpenHelpDocs,
		bridge.ChannelPosthogCapture:       g.onPosthogCapture,
		bridge.ChannelLocationChanged:      g.onLocationChanged,
	}
}

// Channels lists every channel Register subscribes to
func (g *Gateway) Channels() []string {
	return g.mainBridge.Inbound()
}

// Register subscribes one listener per channel on bus. Listeners from any
// earlier registration are removed first, so calling Register again after a
// window is recreated never doubles a handler.
func (g *Gateway) Register(bus Bus) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, off := range g.offs {
		off()
	}
	g.offs = g.offs[:0]

	for channel, fn := range g.handlers() {
		g.offs = append(g.offs, bus.On(channel, g.guard(channel, fn)))
	}
	g.logger.Debug("Registered message handlers", "channels", len(g.offs))
}

// Unregister removes every listener added by Register
func (g *Gateway) Unregister() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, off := range g.offs {
		off()
	}
	g.offs = nil
}

// guard drops messages the sender's bridge does not expose and keeps a
// panicking handler from taking the event loop down
func (g *Gateway) guard(channel string, fn func(Event)) func(Event) {
	return func(ev Event) {
		b := g.mainBridge
		if g.overlay != nil && g.overlay.Owns(ev.Sender) {
			b = g.overlayBridge
		}
		if !b.AllowsInbound(channel) {
			g.logger.Warn("Dropping message outside the sender's bridge", "channel", channel, "bridge", b.Name)
			return
		}
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Message handler panicked", "channel", channel, "panic", r)
			}
		}()
		ev.Channel = channel
		fn(ev)
	}
}

func (g *Gateway) onToggleAnnotation(ev Event) {
	req, err := NormalizeToggle(ev.Message)
	if err != nil {
		logging.LogShellError(g.logger, err, "toggle_annotation", map[string]interface{}{"channel": ev.Channel})
		return
	}
	if g.overlay == nil {
		g.logger.Warn("No overlay manager configured", "channel", ev.Channel)
		return
	}

	// resolve the main window now rather than holding on to one from startup
	main, _ := g.registry.Current()
	if err := g.overlay.Toggle(main, req); err != nil {
		logging.LogShellError(g.logger, err, "toggle_annotation", map[string]interface{}{"channel": ev.Channel})
	}
}

func (g *Gateway) onOpenExternal(ev Event) {
	raw, ok := ev.Message.String(0)
	if !ok {
		err := errors.HandleValidationError("open_external", "url", ev.Message.Kind(0), "string required")
		logging.LogShellError(g.logger, err, "open_external", map[string]interface{}{"channel": ev.Channel})
		return
	}
	g.openExternal(ev.Channel, raw)
}

// onJitsiOpenURL handles popups raised by the meeting page. Allow-listed
// hosts stay inside the main window.
func (g *Gateway) onJitsiOpenURL(ev Event) {
	raw, ok := ev.Message.String(0)
	if !ok {
		err := errors.HandleValidationError("open_external", "url", ev.Message.Kind(0), "string required")
		logging.LogShellError(g.logger, err, "open_external", map[string]interface{}{"channel": ev.Channel})
		return
	}
	target, err := CheckExternalURL(raw)
	if err != nil {
		logging.LogShellError(g.logger, err, "open_external", map[string]interface{}{"channel": ev.Channel})
		return
	}
	if !g.isAllowedHost(target) {
		g.openExternal(ev.Channel, target)
		return
	}
	win, found := g.registry.Current()
	if !found {
		g.openExternal(ev.Channel, target)
		return
	}
	if err := win.LoadURL(target); err != nil {
		logging.LogShellError(g.logger, errors.WrapError("open_in_window", err), "open_external", map[string]interface{}{"channel": ev.Channel})
		return
	}
	g.logger.Info("Opened allowed link in main window", "url", target)
}

func (g *Gateway) isAllowedHost(target string) bool {
	if g.allowed == nil {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return g.allowed(u.Hostname())
}

func (g *Gateway) openExternal(channel, raw string) {
	target, err := CheckExternalURL(raw)
	if err != nil {
		logging.LogShellError(g.logger, err, "open_external", map[string]interface{}{"channel": channel})
		return
	}
	if err := g.host.OpenExternal(target); err != nil {
		logging.LogShellError(g.logger, errors.WrapError("open_external", err), "open_external", map[string]interface{}{"channel": channel})
		return
	}
	g.logger.Info("Opened external link", "channel", channel, "url", target)
}

func (g *Gateway) onShowOverlay(ev Event) {
	if g.overlay == nil || !g.overlay.BringToFront() {
		g.logger.Debug("No overlay to show", "channel", ev.Channel)
	}
}

func (g *Gateway) onSetIgnoreMouseEvents(ev Event) {
	ignore, ok := ev.Message.Bool(0)
	if !ok {
		err := errors.HandleValidationError("set_ignore_mouse_events", "ignore", ev.Message.Kind(0), "boolean required")
		logging.LogShellError(g.logger, err, "set_ignore_mouse_events", map[string]interface{}{"channel": ev.Channel})
		return
	}
	if ev.Sender == nil || ev.Sender.IsDestroyed() {
		g.logger.Warn("Sender window is gone", "channel", ev.Channel)
		return
	}

	var err error
	if g.overlay != nil && g.overlay.Owns(ev.Sender) {
		err = g.overlay.SetClickThrough(ignore)
	} else {
		err = ev.Sender.SetIgnoreMouseEvents(ignore)
	}
	if err != nil {
		logging.LogShellError(g.logger, err, "set_ignore_mouse_events", map[string]interface{}{"channel": ev.Channel})
		return
	}
	g.logger.Debug("Set mouse passthrough", "channel", ev.Channel, "window", ev.Sender.ID(), "ignore", ignore)
}

type screenshareStop struct {
	SharerID string `json:"sharerId"`
}

func (g *Gateway) onScreenshareStop(ev Event) {
	var payload screenshareStop
	if err := ev.Message.Decode(0, &payload); err != nil {
		logging.LogShellError(g.logger, errors.HandleValidationError("screenshare_stop", "sharerId", "", err.Error()),
			"screenshare_stop", map[string]interface{}{"channel": ev.Channel})
		return
	}
	if g.overlay != nil {
		g.overlay.CloseViewersWhiteboards(payload.SharerID)
	}
}

func (g *Gateway) onNavToHome(ev Event) {
	win, ok := g.registry.Current()
	if !ok {
		logging.LogShellError(g.logger, errors.HandleNotFound("nav_to_home", "main_window", ""), "nav_to_home",
			map[string]interface{}{"channel": ev.Channel})
		return
	}
	if err := win.LoadURL(g.routes.Landing); err != nil {
		logging.LogShellError(g.logger, errors.WrapError("nav_to_home", err), "nav_to_home",
			map[string]interface{}{"channel": ev.Channel})
	}
}

func (g *Gateway) onShowAbout(ev Event) {
	if g.collab.Updater == nil {
		g.logger.Debug("No updater configured", "channel", ev.Channel)
		return
	}
	g.collab.Updater.ShowAbout()
}

func (g *Gateway) onCheckForUpdates(ev Event) {
	if g.collab.Updater == nil {
		g.logger.Debug("No updater configured", "channel", ev.Channel)
		return
	}
	g.collab.Updater.CheckForUpdates()
}

func (g *Gateway) onOpenHelpDocs(ev Event) {
	if g.collab.HelpDocs == nil {
		g.logger.Debug("No help docs configured", "channel", ev.Channel)
		return
	}
	if err := g.collab.HelpDocs.Open(); err != nil {
		logging.LogShellError(g.logger, err, "open_help_docs", map[string]interface{}{"channel": ev.Channel})
	}
}

type captureRequest struct {
	Event      json.RawMessage `json:"event"`
	Properties map[string]any  `json:"properties"`
}

func (g *Gateway) onPosthogCapture(ev Event) {
	if g.collab.Analytics == nil {
		return
	}
	var payload captureRequest
	if ev.Message.Kind(0) != "object" || ev.Message.Decode(0, &payload) != nil {
		g.logger.Debug("Ignoring malformed analytics capture", "channel", ev.Channel)
		return
	}
	var name string
	if json.Unmarshal(payload.Event, &name) != nil || name == "" {
		g.logger.Debug("Ignoring analytics capture without an event name", "channel", ev.Channel)
		return
	}
	if payload.Properties == nil {
		payload.Properties = map[string]any{}
	}
	if err := g.collab.Analytics.Capture(name, payload.Properties); err != nil {
		logging.LogShellError(g.logger, err, "posthog_capture", map[string]interface{}{"channel": ev.Channel, "event": name})
	}
}

// onLocationChanged redirects the main view away from the meeting hang-up
// page and onto the meeting origin
func (g *Gateway) onLocationChanged(ev Event) {
	current, ok := ev.Message.String(0)
	if !ok {
		return
	}
	win, found := g.registry.Current()
	if !found || (ev.Sender != nil && ev.Sender != win) {
		return
	}
	dest, redirect := deeplink.Redirect(current, g.routes)
	if !redirect {
		return
	}
	g.logger.Info("Redirecting main view", "channel", ev.Channel, "from", current, "to", dest)
	if err := win.LoadURL(dest); err != nil {
		logging.LogShellError(g.logger, errors.WrapError("redirect_main_view", err), "redirect_main_view",
			map[string]interface{}{"channel": ev.Channel})
	}
}
