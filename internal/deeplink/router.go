package deeplink

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/overlay"
)

const (
	authCallbackMarker   = "auth-callback"
	logoutCallbackMarker = "logout-callback"

	defaultCallbackDelay = 500 * time.Millisecond
)

// OverlayCloser is the part of the overlay manager the router needs
type OverlayCloser interface {
	Close(notify bool, reason string)
}

// Options configures a Router
type Options struct {
	Routes   Routes
	Host     host.Host
	Registry *host.Registry
	Overlay  OverlayCloser
	Pending  *Pending
	Logger   logging.Logger
	// CallbackDelay is how long auth callbacks wait before reloading or
	// notifying the page
	CallbackDelay time.Duration
	// AfterFunc schedules delayed work; defaults to time.AfterFunc
	AfterFunc func(d time.Duration, f func())
}

// Router turns deep links into main-window navigations
type Router struct {
	routes        Routes
	host          host.Host
	registry      *host.Registry
	overlay       OverlayCloser
	pending       *Pending
	logger        logging.Logger
	callbackDelay time.Duration
	afterFunc     func(d time.Duration, f func())
}

func NewRouter(opts Options) *Router {
	r := &Router{
		routes:        opts.Routes,
		host:          opts.Host,
		registry:      opts.Registry,
		overlay:       opts.Overlay,
		pending:       opts.Pending,
		logger:        logging.Named(opts.Logger, "deeplink"),
		callbackDelay: opts.CallbackDelay,
		afterFunc:     opts.AfterFunc,
	}
	if r.pending == nil {
		r.pending = &Pending{}
	}
	if r.callbackDelay <= 0 {
		r.callbackDelay = defaultCallbackDelay
	}
	if r.afterFunc == nil {
		r.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return r
}

// Routes returns the routing table in use
func (r *Router) Routes() Routes { return r.routes }

// HandleActivation accepts a link delivered by the OS. Links that arrive
// before the main window exists are kept for ConsumePending.
func (r *Router) HandleActivation(raw string) bool {
	if !HasScheme(raw, r.routes.Scheme) {
		err := errors.HandleValidationError("handle_activation", "link", raw, "missing "+r.routes.Scheme+" scheme")
		logging.LogShellError(r.logger, err, "handle_activation", nil)
		return false
	}
	if _, ok := r.registry.Current(); !ok {
		r.logger.Info("Deferring deep link until the main window is ready", "link", raw)
		r.pending.Store(raw)
		return false
	}
	return r.Navigate(raw)
}

// StorePending keeps raw for when the main window becomes ready
func (r *Router) StorePending(raw string) {
	r.pending.Store(raw)
}

// ConsumePending navigates to the link stored before the window existed.
// Login and logout callbacks are delivered to a page, so a window that has
// loaded nothing yet gets the landing page first and the callback runs once
// that page has finished loading.
func (r *Router) ConsumePending() bool {
	raw, ok := r.pending.Take()
	if !ok {
		return false
	}
	r.logger.Info("Processing deferred deep link", "link", raw)

	win, ok := r.registry.Current()
	if !ok || !isCallback(raw) || win.URL() != "" {
		return r.Navigate(raw)
	}

	var once sync.Once
	win.OnDidFinishLoad(func() {
		once.Do(func() { r.Navigate(raw) })
	})
	if err := win.LoadURL(r.routes.Landing); err != nil {
		err = errors.WrapErrorWithContext("load_landing", err, map[string]string{"url": r.routes.Landing})
		logging.LogShellError(r.logger, err, "consume_pending", nil)
		return false
	}
	return true
}

func isCallback(raw string) bool {
	return strings.Contains(raw, authCallbackMarker) || strings.Contains(raw, logoutCallbackMarker)
}

// Navigate routes raw into the main window and reports whether a window
// accepted it. Leaving an active meeting needs the user's confirmation.
func (r *Router) Navigate(raw string) bool {
	switch {
	case strings.Contains(raw, authCallbackMarker) && !strings.Contains(raw, "logout"):
		return r.handleAuthCallback(raw)
	case strings.Contains(raw, logoutCallbackMarker):
		return r.handleLogoutCallback()
	}

	target := Classify(raw, r.routes)
	dest := target.Destination(r.routes)

	win, ok := r.registry.Current()
	if !ok {
		err := errors.HandleNotFound("navigate_deep_link", "main_window", "")
		logging.LogShellError(r.logger, err, "navigate_deep_link", map[string]interface{}{"destination": dest})
		return false
	}

	current := win.URL()
	if IsMeetingURL(current) && current != dest {
		leave := r.host.Confirm(
			"Leave Meeting?",
			"You are currently in a meeting. Do you want to leave it and open the link?",
			"Leave",
			"Stay",
		)
		if !leave {
			r.logger.Info("Deep link declined, staying in meeting",
				"destination", dest,
				"current", current,
			)
			return false
		}
		if r.overlay != nil {
			r.overlay.Close(true, overlay.ReasonDeepLink)
		}
	}

	if err := win.LoadURL(dest); err != nil {
		err = errors.WrapErrorWithContext("navigate_deep_link", err, map[string]string{"destination": dest})
		logging.LogShellError(r.logger, err, "navigate_deep_link", nil)
		return false
	}
	bringToFront(win)

	r.logger.Info("Navigated deep link", "kind", target.Kind.String(), "destination", dest)
	return true
}

func (r *Router) handleAuthCallback(raw string) bool {
	payload, err := authPayload(raw, r.routes.Scheme)
	if err != nil {
		logging.LogShellError(r.logger, err, "auth_callback", nil)
		return false
	}

	win, ok := r.registry.Current()
	if !ok {
		logging.LogShellError(r.logger, errors.HandleNotFound("auth_callback", "main_window", ""), "auth_callback", nil)
		return false
	}

	if err := win.Send(bridge.ChannelAuthTokenReceived, payload); err != nil {
		r.logger.Warn("Failed to deliver auth token", "error", err)
	}
	// let the page persist the token before reloading it
	r.afterFunc(r.callbackDelay, func() {
		if !win.IsDestroyed() {
			win.Reload()
		}
	})
	bringToFront(win)
	r.logger.Info("Delivered auth callback")
	return true
}

func (r *Router) handleLogoutCallback() bool {
	win, ok := r.registry.Current()
	if !ok {
		logging.LogShellError(r.logger, errors.HandleNotFound("logout_callback", "main_window", ""), "logout_callback", nil)
		return false
	}
	bringToFront(win)
	r.afterFunc(r.callbackDelay, func() {
		if win.IsDestroyed() {
			return
		}
		if err := win.Send(bridge.ChannelAuthLogoutComplete); err != nil {
			r.logger.Warn("Failed to deliver logout completion", "error", err)
		}
	})
	return true
}

// authPayload extracts the JSON user object carried in the payload parameter
func authPayload(raw, scheme string) (json.RawMessage, error) {
	u, err := url.Parse("https://" + stripScheme(strings.TrimSpace(raw), scheme))
	if err != nil {
		return nil, errors.HandleValidationError("auth_callback", "link", raw, "unparseable")
	}
	payload := u.Query().Get("payload")
	if payload == "" {
		return nil, errors.HandleValidationError("auth_callback", "payload", "", "missing")
	}
	// the payload may be encoded twice
	if !json.Valid([]byte(payload)) {
		if decoded, err := url.QueryUnescape(payload); err == nil {
			payload = decoded
		}
	}
	if !json.Valid([]byte(payload)) {
		return nil, errors.HandleValidationError("auth_callback", "payload", "", "not JSON")
	}
	return json.RawMessage(payload), nil
}

func bringToFront(win host.Window) {
	if win.IsMinimized() {
		win.Restore()
	}
	win.Show()
	win.Focus()
}
