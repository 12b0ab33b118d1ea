package platform

import "errors"

var (
	// ErrNotSupported is returned when the running OS has no equivalent setting
	ErrNotSupported = errors.New("not supported on this platform")
	// ErrWindowNotFound is returned when no native window has the given title
	ErrWindowNotFound = errors.New("native window not found")
)

// WindowFlags applies native window settings the webview runtime does not
// expose. Windows are looked up by their title, which must be unique.
type WindowFlags interface {
	// SetCaptureExcluded hides the window from screen capture and screen sharing
	SetCaptureExcluded(title string, excluded bool) error
	// SetClickThrough lets mouse input pass through the window
	SetClickThrough(title string, ignore bool) error
	// SetVisibleOnAllWorkspaces keeps the window on every virtual desktop
	SetVisibleOnAllWorkspaces(title string, enabled bool) error
	// SetSkipTaskbar keeps the window out of the taskbar, dock and app switcher
	SetSkipTaskbar(title string, skip bool) error
}
