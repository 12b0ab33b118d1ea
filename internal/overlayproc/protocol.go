// Package overlayproc realises the overlay window as a child process. The
// parent serves a loopback websocket; the child runs its own frameless Wails
// window and is driven entirely through frames on that link.
package overlayproc

import (
	"strings"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
)

const (
	// ChildFlag marks a process as the overlay child
	ChildFlag = "--overlay"
	// LinkFlag precedes the websocket URL the child dials
	LinkFlag = "--link"

	linkPath   = "/link"
	tokenParam = "token"
)

// FrameType names a frame on the link
type FrameType string

// Parent to child
const (
	FrameInit    FrameType = "init"
	FrameLoad    FrameType = "load"
	FrameReload  FrameType = "reload"
	FrameShow    FrameType = "show"
	FrameFocus   FrameType = "focus"
	FrameRestore FrameType = "restore"
	FrameSetFlag FrameType = "set-flag"
	FrameSend    FrameType = "send"
	FrameDestroy FrameType = "destroy"
)

// Child to parent
const (
	FrameReady   FrameType = "ready"
	FrameInbound FrameType = "inbound"
	FrameAck     FrameType = "ack"
	FrameClosed  FrameType = "closed"
)

// Flag is a window setting toggled with FrameSetFlag
type Flag string

const (
	FlagContentProtection Flag = "content-protection"
	FlagIgnoreMouse       Flag = "ignore-mouse-events"
	FlagAlwaysOnTop       Flag = "always-on-top"
	FlagAllWorkspaces     Flag = "all-workspaces"
	FlagFullScreen        Flag = "full-screen"
	FlagSkipTaskbar       Flag = "skip-taskbar"
)

// Frame is one JSON message on the link
type Frame struct {
	Type    FrameType           `json:"type"`
	Seq     uint64              `json:"seq,omitempty"`
	URL     string              `json:"url,omitempty"`
	Flag    Flag                `json:"flag,omitempty"`
	Enabled bool                `json:"enabled,omitempty"`
	Options *host.WindowOptions `json:"options,omitempty"`
	Message *bridge.Message     `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ChildLink reports whether args start the overlay child and returns the
// link URL it must dial
func ChildLink(args []string) (string, bool) {
	isChild := false
	link := ""
	for i, arg := range args {
		switch {
		case arg == ChildFlag:
			isChild = true
		case arg == LinkFlag && i+1 < len(args):
			link = args[i+1]
		case strings.HasPrefix(arg, LinkFlag+"="):
			link = strings.TrimPrefix(arg, LinkFlag+"=")
		}
	}
	return link, isChild && link != ""
}
