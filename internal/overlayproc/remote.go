package overlayproc

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sonacove/internal/bridge"
	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

const (
	writeWait   = 5 * time.Second
	killGrace   = 3 * time.Second
	maxFrameLen = 1 << 20
)

type remoteConfig struct {
	ackTimeout time.Duration
	onInbound  InboundFunc
	logger     logging.Logger
}

// RemoteWindow is a host.Window living in an overlay child process
type RemoteWindow struct {
	id     string
	title  string
	conn   *websocket.Conn
	proc   Process
	bridge *bridge.Bridge
	cfg    remoteConfig

	writeMu sync.Mutex

	mu           sync.Mutex
	url          string
	bounds       geometry.Rect
	destroyed    bool
	onLoad       []func()
	onClosed     []func()
	readyPending bool
	seq          uint64
	acks         map[uint64]chan string
	inbound      []bridge.Message
	inboundReady chan struct{}

	finishOnce sync.Once
	done       chan struct{}
}

var _ host.Window = (*RemoteWindow)(nil)

func newRemoteWindow(id string, conn *websocket.Conn, proc Process, opts host.WindowOptions, cfg remoteConfig) *RemoteWindow {
	if cfg.logger == nil {
		cfg.logger = logging.NewDefaultLogger()
	}
	return &RemoteWindow{
		id:     id,
		title:  opts.Title,
		conn:   conn,
		proc:   proc,
		bridge: bridge.Overlay(),
		cfg:    cfg,
		url:    opts.URL,
		bounds: opts.Bounds,
		acks:   make(map[uint64]chan string),
		done:   make(chan struct{}),

		inboundReady: make(chan struct{}, 1),
	}
}

func (w *RemoteWindow) ID() string    { return w.id }
func (w *RemoteWindow) Title() string { return w.title }

func (w *RemoteWindow) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *RemoteWindow) Bounds() geometry.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *RemoteWindow) IsDestroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// IsMinimized is always false: the overlay has no minimise affordance
func (w *RemoteWindow) IsMinimized() bool { return false }

func (w *RemoteWindow) write(f Frame) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(f)
}

func (w *RemoteWindow) command(f Frame) error {
	if w.IsDestroyed() {
		return host.ErrDestroyed
	}
	if err := w.write(f); err != nil {
		return errors.NewShellErrorWithContext("overlay_"+string(f.Type), err, errors.ErrCodeConnection,
			map[string]string{"window": w.id})
	}
	return nil
}

// request sends f and waits for the child to acknowledge it
func (w *RemoteWindow) request(f Frame) error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return host.ErrDestroyed
	}
	w.seq++
	f.Seq = w.seq
	ack := make(chan string, 1)
	w.acks[f.Seq] = ack
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.acks, f.Seq)
		w.mu.Unlock()
	}()

	if err := w.command(f); err != nil {
		return err
	}

	timer := time.NewTimer(w.cfg.ackTimeout)
	defer timer.Stop()
	select {
	case msg, ok := <-ack:
		if !ok {
			return host.ErrDestroyed
		}
		if msg != "" {
			return fmt.Errorf("%s %s: %s", f.Type, f.Flag, msg)
		}
		return nil
	case <-timer.C:
		return errors.HandleTimeoutError("overlay_"+string(f.Type), w.cfg.ackTimeout.String())
	}
}

func (w *RemoteWindow) LoadURL(url string) error {
	w.mu.Lock()
	w.url = url
	w.readyPending = false
	w.mu.Unlock()
	return w.command(Frame{Type: FrameLoad, URL: url})
}

func (w *RemoteWindow) Reload()  { w.fireAndForget(FrameReload) }
func (w *RemoteWindow) Show()    { w.fireAndForget(FrameShow) }
func (w *RemoteWindow) Focus()   { w.fireAndForget(FrameFocus) }
func (w *RemoteWindow) Restore() { w.fireAndForget(FrameRestore) }

func (w *RemoteWindow) fireAndForget(t FrameType) {
	if err := w.command(Frame{Type: t}); err != nil {
		w.cfg.logger.Debug("Overlay command dropped", "command", string(t), "error", err)
	}
}

// Send delivers a message to the overlay content if the overlay bridge allows it
func (w *RemoteWindow) Send(channel string, args ...any) error {
	if !w.bridge.AllowsOutbound(channel) {
		return errors.HandlePermissionError("overlay_send", channel, "send")
	}
	msg, err := bridge.NewMessage(channel, args...)
	if err != nil {
		return errors.HandleValidationError("overlay_send", "args", channel, err.Error())
	}
	return w.command(Frame{Type: FrameSend, Message: &msg})
}

func (w *RemoteWindow) setFlag(flag Flag, enabled bool) error {
	return w.request(Frame{Type: FrameSetFlag, Flag: flag, Enabled: enabled})
}

func (w *RemoteWindow) SetIgnoreMouseEvents(ignore bool) error {
	return w.setFlag(FlagIgnoreMouse, ignore)
}

func (w *RemoteWindow) SetContentProtection(enabled bool) error {
	return w.setFlag(FlagContentProtection, enabled)
}

func (w *RemoteWindow) SetAlwaysOnTop(enabled bool) error {
	return w.setFlag(FlagAlwaysOnTop, enabled)
}

func (w *RemoteWindow) SetVisibleOnAllWorkspaces(enabled bool) error {
	return w.setFlag(FlagAllWorkspaces, enabled)
}

func (w *RemoteWindow) SetFullScreen(enabled bool) error {
	return w.setFlag(FlagFullScreen, enabled)
}

func (w *RemoteWindow) SetSkipTaskbar(skip bool) error {
	return w.setFlag(FlagSkipTaskbar, skip)
}

// OnDidFinishLoad registers fn for every completed load. A load that
// completed before any callback was registered fires fn immediately.
func (w *RemoteWindow) OnDidFinishLoad(fn func()) {
	w.mu.Lock()
	w.onLoad = append(w.onLoad, fn)
	fire := w.readyPending
	w.readyPending = false
	w.mu.Unlock()
	if fire {
		fn()
	}
}

func (w *RemoteWindow) OnClosed(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClosed = append(w.onClosed, fn)
}

// Destroy asks the child to quit, drops the link and fires the closed
// callbacks synchronously
func (w *RemoteWindow) Destroy() {
	if w.IsDestroyed() {
		return
	}
	if err := w.write(Frame{Type: FrameDestroy}); err != nil {
		w.cfg.logger.Debug("Destroy frame not delivered", "window", w.id, "error", err)
	}
	w.finish()
}

func (w *RemoteWindow) readLoop() {
	defer w.finish()
	if w.cfg.onInbound != nil {
		go w.dispatchLoop()
	}

	w.conn.SetReadLimit(maxFrameLen)
	for {
		var f Frame
		if err := w.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !w.IsDestroyed() {
				w.cfg.logger.Warn("Overlay link lost", "window", w.id, "error", err)
			}
			return
		}
		if !w.handle(f) {
			return
		}
	}
}

// handle processes one child frame and reports whether to keep reading
func (w *RemoteWindow) handle(f Frame) bool {
	switch f.Type {
	case FrameReady:
		w.mu.Lock()
		callbacks := append([]func(){}, w.onLoad...)
		if len(callbacks) == 0 {
			w.readyPending = true
		}
		w.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}
	case FrameInbound:
		if f.Message == nil || w.cfg.onInbound == nil {
			return true
		}
		w.enqueueInbound(*f.Message)
	case FrameAck:
		// under the lock so finish cannot close the channel mid-send
		w.mu.Lock()
		if ack, ok := w.acks[f.Seq]; ok {
			select {
			case ack <- f.Error:
			default:
			}
		}
		w.mu.Unlock()
	case FrameClosed:
		return false
	default:
		w.cfg.logger.Debug("Ignoring unknown frame", "type", string(f.Type))
	}
	return true
}

// enqueueInbound hands msg to the dispatch goroutine. Handlers may issue
// acknowledged requests on this window, and only the reader can see the ack.
func (w *RemoteWindow) enqueueInbound(msg bridge.Message) {
	w.mu.Lock()
	w.inbound = append(w.inbound, msg)
	w.mu.Unlock()
	select {
	case w.inboundReady <- struct{}{}:
	default:
	}
}

// dispatchLoop delivers inbound messages in arrival order until the window closes
func (w *RemoteWindow) dispatchLoop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.inboundReady:
		}
		for {
			w.mu.Lock()
			if len(w.inbound) == 0 || w.destroyed {
				w.inbound = nil
				w.mu.Unlock()
				break
			}
			msg := w.inbound[0]
			w.inbound = w.inbound[1:]
			w.mu.Unlock()
			w.cfg.onInbound(w, msg)
		}
	}
}

// finish runs once: marks the window destroyed, fails waiting requests,
// reaps the child and fires the closed callbacks
func (w *RemoteWindow) finish() {
	w.finishOnce.Do(func() {
		w.mu.Lock()
		w.destroyed = true
		callbacks := append([]func(){}, w.onClosed...)
		for seq, ack := range w.acks {
			close(ack)
			delete(w.acks, seq)
		}
		w.mu.Unlock()

		close(w.done)
		w.writeMu.Lock()
		w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		w.writeMu.Unlock()
		w.conn.Close()
		go w.reap()

		for _, fn := range callbacks {
			fn()
		}
	})
}

// reap waits for the child to exit, killing it after a grace period
func (w *RemoteWindow) reap() {
	if w.proc == nil {
		return
	}
	exited := make(chan error, 1)
	go func() { exited <- w.proc.Wait() }()
	select {
	case err := <-exited:
		if err != nil {
			w.cfg.logger.Debug("Overlay process exited", "window", w.id, "error", err)
		}
	case <-time.After(killGrace):
		w.cfg.logger.Warn("Overlay process did not exit, killing it", "window", w.id)
		_ = w.proc.Kill()
		<-exited
	}
}
