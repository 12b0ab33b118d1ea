package overlayproc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

const (
	defaultConnectTimeout = 15 * time.Second
	defaultAckTimeout     = 3 * time.Second
)

// Process is a started child process
type Process interface {
	Wait() error
	Kill() error
}

// SpawnFunc starts a child that will dial linkURL
type SpawnFunc func(linkURL string) (Process, error)

// InboundFunc receives every bridge message the overlay content sends
type InboundFunc func(sender host.Window, msg bridge.Message)

// LauncherOptions configures a Launcher
type LauncherOptions struct {
	Spawn          SpawnFunc
	OnInbound      InboundFunc
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
	Logger         logging.Logger
}

// Launcher starts overlay child processes and owns the link server
type Launcher struct {
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	pending  map[string]chan *websocket.Conn
	windows  map[string]*RemoteWindow

	spawn          SpawnFunc
	onInbound      InboundFunc
	connectTimeout time.Duration
	ackTimeout     time.Duration
	logger         logging.Logger
	upgrader       websocket.Upgrader
}

func NewLauncher(opts LauncherOptions) *Launcher {
	if opts.Spawn == nil {
		opts.Spawn = ExecSpawner()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = defaultAckTimeout
	}
	return &Launcher{
		pending:        make(map[string]chan *websocket.Conn),
		windows:        make(map[string]*RemoteWindow),
		spawn:          opts.Spawn,
		onInbound:      opts.OnInbound,
		connectTimeout: opts.ConnectTimeout,
		ackTimeout:     opts.AckTimeout,
		logger:         logging.Named(opts.Logger, "overlay-link"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The child is a Go client and sends no Origin; anything with one is a browser
			CheckOrigin: func(r *http.Request) bool {
				return r.Header.Get("Origin") == ""
			},
		},
	}
}

// ExecSpawner re-executes the running binary as the overlay child
func ExecSpawner() SpawnFunc {
	return func(linkURL string) (Process, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
		cmd := exec.Command(exe, ChildFlag, LinkFlag, linkURL)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start overlay process: %w", err)
		}
		return cmdProcess{cmd}, nil
	}
}

type cmdProcess struct{ cmd *exec.Cmd }

func (p cmdProcess) Wait() error { return p.cmd.Wait() }
func (p cmdProcess) Kill() error { return p.cmd.Process.Kill() }

// Router serves the link endpoint
func (l *Launcher) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(linkPath, l.handleLink)
	return r
}

func (l *Launcher) ensureServer() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return l.listener.Addr().String(), nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", errors.NewShellError("start_link_server", err, errors.ErrCodeUnavailable)
	}
	l.listener = ln
	l.server = &http.Server{
		Handler:           l.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Error("Link server stopped", "error", err)
		}
	}()
	l.logger.Info("Link server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

func (l *Launcher) handleLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(tokenParam)

	l.mu.Lock()
	ch, ok := l.pending[token]
	delete(l.pending, token)
	l.mu.Unlock()

	if !ok {
		l.logger.Warn("Rejected link with unknown token", "remote", r.RemoteAddr)
		http.Error(w, "unknown token", http.StatusForbidden)
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("Link upgrade failed", "error", err)
		close(ch)
		return
	}
	ch <- conn
}

// CreateWindow starts a child process and returns its window once the child
// has connected and received its options
func (l *Launcher) CreateWindow(opts host.WindowOptions) (host.Window, error) {
	addr, err := l.ensureServer()
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	ch := make(chan *websocket.Conn, 1)
	l.mu.Lock()
	l.pending[token] = ch
	l.mu.Unlock()

	linkURL := fmt.Sprintf("ws://%s%s?%s=%s", addr, linkPath, tokenParam, token)
	proc, err := l.spawn(linkURL)
	if err != nil {
		l.dropPending(token, ch)
		return nil, errors.NewShellError("spawn_overlay", err, errors.ErrCodeUnavailable)
	}

	timer := time.NewTimer(l.connectTimeout)
	defer timer.Stop()

	var conn *websocket.Conn
	select {
	case c, ok := <-ch:
		if !ok {
			discard(proc)
			return nil, errors.HandleConnectionError("spawn_overlay", "link handshake failed")
		}
		conn = c
	case <-timer.C:
		l.dropPending(token, ch)
		discard(proc)
		return nil, errors.HandleTimeoutError("spawn_overlay", l.connectTimeout.String())
	}

	win := newRemoteWindow(token, conn, proc, opts, remoteConfig{
		ackTimeout: l.ackTimeout,
		onInbound:  l.onInbound,
		logger:     l.logger,
	})
	if err := win.write(Frame{Type: FrameInit, Options: &opts}); err != nil {
		win.Destroy()
		return nil, errors.WrapError("init_overlay", err)
	}

	l.mu.Lock()
	l.windows[token] = win
	l.mu.Unlock()
	win.OnClosed(func() {
		l.mu.Lock()
		delete(l.windows, token)
		l.mu.Unlock()
	})

	go win.readLoop()
	l.logger.Info("Overlay process connected", "window", token)
	return win, nil
}

// discard kills a child that never completed the handshake and reaps it
func discard(proc Process) {
	_ = proc.Kill()
	_ = proc.Wait()
}

// dropPending forgets token and closes a connection that raced the timeout
func (l *Launcher) dropPending(token string, ch chan *websocket.Conn) {
	l.mu.Lock()
	delete(l.pending, token)
	l.mu.Unlock()
	select {
	case c, open := <-ch:
		if open && c != nil {
			c.Close()
		}
	default:
	}
}

// Close destroys every child window and stops the link server
func (l *Launcher) Close(ctx context.Context) error {
	l.mu.Lock()
	windows := make([]*RemoteWindow, 0, len(l.windows))
	for _, w := range l.windows {
		windows = append(windows, w)
	}
	server := l.server
	l.server = nil
	l.listener = nil
	l.mu.Unlock()

	for _, w := range windows {
		w.Destroy()
	}
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
