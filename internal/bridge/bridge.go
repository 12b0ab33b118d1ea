package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Inbound channels, content view to shell
const (
	ChannelToggleAnnotation     = "toggle-annotation"
	ChannelOpenExternal         = "open-external"
	ChannelJitsiOpenURL         = "jitsi-open-url"
	ChannelShowOverlay          = "show-overlay"
	ChannelSetIgnoreMouseEvents = "set-ignore-mouse-events"
	ChannelScreenshareStop      = "screenshare-stop"
	ChannelNavToHome            = "nav-to-home"
	ChannelShowAboutDialog      = "show-about-dialog"
	ChannelCheckForUpdates      = "check-for-updates"
	ChannelOpenHelpDocs         = "open-help-docs"
	ChannelPosthogCapture       = "posthog-capture"
	ChannelLocationChanged      = "location-changed"
)

// Outbound channels, shell to content view
const (
	ChannelNotifyOverlayClosed     = "notify-overlay-closed"
	ChannelCleanupViewerWhiteboard = "cleanup-whiteboards-for-viewers"
	ChannelToggleClickThrough      = "toggle-click-through-request"
	ChannelAuthTokenReceived       = "auth-token-received"
	ChannelAuthLogoutComplete      = "auth-logout-complete"
)

// Message is the envelope carried between a content view and the shell
type Message struct {
	Channel string            `json:"channel"`
	Args    []json.RawMessage `json:"args,omitempty"`
}

// NewMessage encodes args into an envelope
func NewMessage(channel string, args ...any) (Message, error) {
	msg := Message{Channel: channel}
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return Message{}, fmt.Errorf("encode arg %d for %s: %w", i, channel, err)
		}
		msg.Args = append(msg.Args, raw)
	}
	return msg, nil
}

// Len returns the number of positional arguments
func (m Message) Len() int { return len(m.Args) }

// Kind returns the JSON kind of argument i: "object", "array", "string",
// "bool", "number", "null", or "" when absent
func (m Message) Kind(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	for _, c := range m.Args[i] {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return "object"
		case '[':
			return "array"
		case '"':
			return "string"
		case 't', 'f':
			return "bool"
		case 'n':
			return "null"
		default:
			return "number"
		}
	}
	return ""
}

// Bool returns argument i when it is a JSON boolean
func (m Message) Bool(i int) (bool, bool) {
	if m.Kind(i) != "bool" {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(m.Args[i], &v); err != nil {
		return false, false
	}
	return v, true
}

// String returns argument i when it is a JSON string
func (m Message) String(i int) (string, bool) {
	if m.Kind(i) != "string" {
		return "", false
	}
	var v string
	if err := json.Unmarshal(m.Args[i], &v); err != nil {
		return "", false
	}
	return v, true
}

// Decode unmarshals argument i into v
func (m Message) Decode(i int, v any) error {
	if i < 0 || i >= len(m.Args) {
		return fmt.Errorf("%s: missing argument %d", m.Channel, i)
	}
	if err := json.Unmarshal(m.Args[i], v); err != nil {
		return fmt.Errorf("%s: argument %d: %w", m.Channel, i, err)
	}
	return nil
}

// FromEvent rebuilds a Message from the data of a webview runtime event,
// which arrives as decoded JSON
func FromEvent(data []any) (Message, bool) {
	if len(data) == 0 {
		return Message{}, false
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return Message{}, false
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Channel == "" {
		return Message{}, false
	}
	return msg, true
}

// Bridge is the allow-list exposed to one kind of content view
type Bridge struct {
	Name     string
	inbound  map[string]struct{}
	outbound map[string]struct{}
}

func newBridge(name string, inbound, outbound []string) *Bridge {
	b := &Bridge{
		Name:     name,
		inbound:  make(map[string]struct{}, len(inbound)),
		outbound: make(map[string]struct{}, len(outbound)),
	}
	for _, c := range inbound {
		b.inbound[c] = struct{}{}
	}
	for _, c := range outbound {
		b.outbound[c] = struct{}{}
	}
	return b
}

// Main is the bridge for the primary content view
func Main() *Bridge {
	return newBridge("main",
		[]string{
			ChannelToggleAnnotation,
			ChannelOpenExternal,
			ChannelJitsiOpenURL,
			ChannelShowOverlay,
			ChannelSetIgnoreMouseEvents,
			ChannelScreenshareStop,
			ChannelNavToHome,
			ChannelShowAboutDialog,
			ChannelCheckForUpdates,
			ChannelOpenHelpDocs,
			ChannelPosthogCapture,
			ChannelLocationChanged,
		},
		[]string{
			ChannelNotifyOverlayClosed,
			ChannelCleanupViewerWhiteboard,
			ChannelToggleClickThrough,
			ChannelAuthTokenReceived,
			ChannelAuthLogoutComplete,
		},
	)
}

// Overlay is the bridge for the annotation overlay. It only carries the
// click-through handshake.
func Overlay() *Bridge {
	return newBridge("overlay",
		[]string{ChannelSetIgnoreMouseEvents},
		[]string{ChannelToggleClickThrough},
	)
}

func (b *Bridge) AllowsInbound(channel string) bool {
	if b == nil {
		return false
	}
	_, ok := b.inbound[channel]
	return ok
}

func (b *Bridge) AllowsOutbound(channel string) bool {
	if b == nil {
		return false
	}
	_, ok := b.outbound[channel]
	return ok
}

// Inbound lists the inbound channels in sorted order
func (b *Bridge) Inbound() []string { return sortedKeys(b.inbound) }

// Outbound lists the outbound channels in sorted order
func (b *Bridge) Outbound() []string { return sortedKeys(b.outbound) }

// Manifest is the JSON handed to the bridge script so the page-side filter
// matches the shell-side one
func (b *Bridge) Manifest() ([]byte, error) {
	return json.Marshal(struct {
		Name     string   `json:"name"`
		Inbound  []string `json:"inbound"`
		Outbound []string `json:"outbound"`
	}{b.Name, b.Inbound(), b.Outbound()})
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	OverlayScriptName  = "overlay-bridge.js"
	FallbackScriptName = "bridge.js"
)

// Locate returns the first existing file, trying each filename across all
// dirs before moving to the next filename
func Locate(dirs, filenames []string) (string, bool) {
	for _, name := range filenames {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// OverlayScriptCandidates returns the ordered search locations for the
// overlay bridge script
func OverlayScriptCandidates(exeDir, cwd string) (dirs, filenames []string) {
	dirs = []string{
		exeDir,
		filepath.Join(exeDir, "frontend", "bridge"),
		filepath.Join(exeDir, "..", "Resources"),
		filepath.Join(cwd, "frontend", "bridge"),
		filepath.Join(cwd, "build"),
	}
	return dirs, []string{OverlayScriptName, FallbackScriptName}
}

// LocateOverlayScript searches the standard install locations
func LocateOverlayScript() (string, bool) {
	var exeDir, cwd string
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	cwd, _ = os.Getwd()
	return Locate(OverlayScriptCandidates(exeDir, cwd))
}
