package host

import (
	"errors"

	"sonacove/internal/geometry"
)

const (
	PlatformWindows = "windows"
	PlatformDarwin  = "darwin"
	PlatformLinux   = "linux"
)

// ErrDestroyed is returned by window operations after Destroy
var ErrDestroyed = errors.New("window destroyed")

// Window is a native window hosting one content view
type Window interface {
	ID() string
	Title() string
	URL() string
	Bounds() geometry.Rect

	LoadURL(url string) error
	Reload()
	Show()
	Focus()
	Restore()
	IsMinimized() bool
	IsDestroyed() bool
	Destroy()

	// Send delivers a message to the content view. Channels outside the
	// window's bridge allow-list are dropped with an error.
	Send(channel string, args ...any) error

	SetIgnoreMouseEvents(ignore bool) error
	SetContentProtection(enabled bool) error
	SetAlwaysOnTop(enabled bool) error
	SetVisibleOnAllWorkspaces(enabled bool) error
	SetFullScreen(enabled bool) error
	SetSkipTaskbar(skip bool) error

	OnDidFinishLoad(fn func())
	OnClosed(fn func())
}

// WindowOptions describes a window to create
type WindowOptions struct {
	Title        string
	Bounds       geometry.Rect
	Transparent  bool
	Frameless    bool
	AlwaysOnTop  bool
	SkipTaskbar  bool
	Resizable    bool
	FullScreen   bool
	Hidden       bool
	BridgeScript string // empty when no bridge script was found
	URL          string
}

// Host is the windowing framework as seen by the shell core
type Host interface {
	CreateWindow(opts WindowOptions) (Window, error)
	Displays() []geometry.Display
	RegisterHotkey(accelerator string, fn func()) error
	UnregisterHotkey(accelerator string)
	OpenExternal(url string) error
	// Confirm blocks until the user picks accept (true) or reject (false)
	Confirm(title, message, accept, reject string) bool
	// Message shows an informational dialog and blocks until dismissed
	Message(title, message string)
	Platform() string
}

// DisplaySource adapts a Host to geometry.Source
func DisplaySource(h Host) geometry.Source {
	return geometry.SourceFunc(func() []geometry.Display {
		if h == nil {
			return nil
		}
		return h.Displays()
	})
}
