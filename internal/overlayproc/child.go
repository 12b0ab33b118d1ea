package overlayproc

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// ChildWindow is the overlay window as the child process drives it
type ChildWindow interface {
	Load(url string)
	Reload()
	Show()
	Focus()
	Restore()
	SetFlag(flag Flag, enabled bool) error
	Deliver(msg bridge.Message) error
	Quit()
}

// Link is the child's end of the parent connection
type Link struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	logger  logging.Logger
	bridge  *bridge.Bridge
}

// Dial connects to the parent, retrying while it refuses connections
func Dial(ctx context.Context, linkURL string, retry *errors.RetryConfig, logger logging.Logger) (*Link, error) {
	u, err := url.Parse(linkURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, errors.HandleValidationError("dial_link", "link", linkURL, "expected a ws:// URL")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	var conn *websocket.Conn
	err = errors.WithRetryContext(ctx, retry, func() error {
		c, resp, dialErr := dialer.DialContext(ctx, linkURL, nil)
		if dialErr != nil {
			if resp != nil && resp.StatusCode == 403 {
				return errors.HandlePermissionError("dial_link", "link", "connect")
			}
			return errors.NewShellError("dial_link", dialErr, errors.ErrCodeConnection)
		}
		conn = c
		return nil
	}, "dial-overlay-link")
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(maxFrameLen)
	return &Link{conn: conn, logger: logging.Named(logger, "overlay-child"), bridge: bridge.Overlay()}, nil
}

// ReadInit waits for the window options the parent sends first
func (l *Link) ReadInit() (host.WindowOptions, error) {
	var f Frame
	if err := l.conn.ReadJSON(&f); err != nil {
		return host.WindowOptions{}, errors.NewShellError("read_init", err, errors.ErrCodeConnection)
	}
	if f.Type != FrameInit || f.Options == nil {
		return host.WindowOptions{}, errors.HandleValidationError("read_init", "frame", string(f.Type), "expected init")
	}
	return *f.Options, nil
}

func (l *Link) write(f Frame) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return l.conn.WriteJSON(f)
}

// Ready reports a completed page load
func (l *Link) Ready() error {
	return l.write(Frame{Type: FrameReady})
}

// Inbound forwards a message from the overlay content. Channels outside the
// overlay bridge never leave the child.
func (l *Link) Inbound(msg bridge.Message) error {
	if !l.bridge.AllowsInbound(msg.Channel) {
		l.logger.Warn("Dropping overlay message on disallowed channel", "channel", msg.Channel)
		return errors.HandlePermissionError("overlay_inbound", msg.Channel, "send")
	}
	return l.write(Frame{Type: FrameInbound, Message: &msg})
}

// Closed tells the parent the window is gone
func (l *Link) Closed() error {
	return l.write(Frame{Type: FrameClosed})
}

// Close drops the connection
func (l *Link) Close() error {
	return l.conn.Close()
}

// Serve applies parent commands to win until the parent sends destroy or the
// link drops; either way win.Quit is called
func (l *Link) Serve(win ChildWindow) error {
	defer win.Quit()
	for {
		var f Frame
		if err := l.conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.NewShellError("serve_link", err, errors.ErrCodeConnection)
		}
		if f.Type == FrameDestroy {
			l.logger.Info("Parent requested overlay shutdown")
			return nil
		}
		l.apply(win, f)
	}
}

func (l *Link) apply(win ChildWindow, f Frame) {
	switch f.Type {
	case FrameLoad:
		win.Load(f.URL)
	case FrameReload:
		win.Reload()
	case FrameShow:
		win.Show()
	case FrameFocus:
		win.Focus()
	case FrameRestore:
		win.Restore()
	case FrameSend:
		if f.Message == nil {
			return
		}
		if err := win.Deliver(*f.Message); err != nil {
			l.logger.Warn("Failed to deliver message to overlay", "channel", f.Message.Channel, "error", err)
		}
	case FrameSetFlag:
		ack := Frame{Type: FrameAck, Seq: f.Seq}
		if err := win.SetFlag(f.Flag, f.Enabled); err != nil {
			ack.Error = err.Error()
		}
		if err := l.write(ack); err != nil {
			l.logger.Warn("Failed to acknowledge flag", "flag", string(f.Flag), "error", err)
		}
	default:
		l.logger.Debug("Ignoring unknown frame", "type", fmt.Sprint(f.Type))
	}
}
