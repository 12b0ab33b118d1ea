package overlayproc

import (
	"context"
	stderrors "errors"
	"io/fs"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/platform"
)

// Events exchanged with the overlay shell page
const (
	eventLoad     = "overlay:load"
	eventReload   = "overlay:reload"
	eventLoaded   = "overlay:loaded"
	eventInbound  = "bridge:inbound"
	eventOutbound = "bridge:outbound"

	bridgeScriptPath = "/" + bridge.OverlayScriptName
)

// RunChild runs the overlay child process until the parent destroys the
// window or the link drops. assets holds the overlay shell page.
func RunChild(ctx context.Context, linkURL string, assets fs.FS, log logging.Logger) error {
	log = logging.Named(log, "overlay-child")

	link, err := Dial(ctx, linkURL, errors.LinkRetryConfig(), log)
	if err != nil {
		logging.LogShellError(log, err, "dial_link", nil)
		return err
	}
	defer link.Close()

	opts, err := link.ReadInit()
	if err != nil {
		logging.LogShellError(log, err, "read_init", nil)
		return err
	}

	win := &wailsWindow{
		title:  opts.Title,
		flags:  platform.NewWindowFlags(),
		logger: log,
	}

	app := &options.App{
		Title:             opts.Title,
		Width:             max(opts.Bounds.Width, 1),
		Height:            max(opts.Bounds.Height, 1),
		Frameless:         opts.Frameless,
		AlwaysOnTop:       opts.AlwaysOnTop,
		StartHidden:       opts.Hidden,
		DisableResize:     !opts.Resizable,
		HideWindowOnClose: false,
		BackgroundColour:  &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: bridgeScriptHandler(opts.BridgeScript),
		},
		Logger:   logging.NewWailsLoggerAdapter(log, "overlay"),
		LogLevel: logger.INFO,
		OnStartup: func(ctx context.Context) {
			win.start(ctx, link, opts)
		},
		OnShutdown: func(ctx context.Context) {
			if err := link.Closed(); err != nil {
				log.Debug("Closed frame not delivered", "error", err)
			}
		},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    true,
		},
		Mac: &mac.Options{
			TitleBar:             mac.TitleBarHidden(),
			WebviewIsTransparent: true,
			WindowIsTranslucent:  false,
		},
	}

	if err := wails.Run(app); err != nil {
		logging.LogShellError(log, err, "run_overlay", nil)
		return err
	}
	return nil
}

// bridgeScriptHandler serves the overlay bridge script from disk. With no
// script the page loads without a bridge.
func bridgeScriptHandler(path string) http.Handler {
	r := chi.NewRouter()
	r.Get(bridgeScriptPath, func(w http.ResponseWriter, req *http.Request) {
		if path == "" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		http.ServeFile(w, req, path)
	})
	return r
}

// wailsWindow implements ChildWindow with the Wails runtime
type wailsWindow struct {
	mu     sync.Mutex
	ctx    context.Context
	title  string
	flags  platform.WindowFlags
	logger logging.Logger
}

func (w *wailsWindow) start(ctx context.Context, link *Link, opts host.WindowOptions) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	runtime.WindowSetPosition(ctx, opts.Bounds.X, opts.Bounds.Y)

	runtime.EventsOn(ctx, eventLoaded, func(...interface{}) {
		if err := link.Ready(); err != nil {
			w.logger.Warn("Ready frame not delivered", "error", err)
		}
	})
	runtime.EventsOn(ctx, eventInbound, func(data ...interface{}) {
		msg, ok := bridge.FromEvent(data)
		if !ok {
			w.logger.Debug("Ignoring malformed overlay message")
			return
		}
		_ = link.Inbound(msg)
	})

	if opts.URL != "" {
		w.Load(opts.URL)
	}

	go func() {
		if err := link.Serve(w); err != nil {
			logging.LogShellError(w.logger, err, "serve_link", nil)
		}
	}()
}

func (w *wailsWindow) context() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ctx
}

func (w *wailsWindow) Load(url string) {
	runtime.EventsEmit(w.context(), eventLoad, url)
}

func (w *wailsWindow) Reload() {
	runtime.EventsEmit(w.context(), eventReload)
}

func (w *wailsWindow) Show() {
	runtime.WindowShow(w.context())
}

func (w *wailsWindow) Focus() {
	ctx := w.context()
	runtime.WindowUnminimise(ctx)
	runtime.WindowShow(ctx)
}

func (w *wailsWindow) Restore() {
	runtime.WindowUnminimise(w.context())
}

func (w *wailsWindow) SetFlag(flag Flag, enabled bool) error {
	ctx := w.context()
	switch flag {
	case FlagContentProtection:
		err := w.flags.SetCaptureExcluded(w.title, enabled)
		if stderrors.Is(err, platform.ErrNotSupported) {
			// matches the other shells on this platform: content protection is a no-op
			w.logger.Warn("Capture exclusion not supported on this platform")
			return nil
		}
		return err
	case FlagIgnoreMouse:
		return w.flags.SetClickThrough(w.title, enabled)
	case FlagAllWorkspaces:
		return w.flags.SetVisibleOnAllWorkspaces(w.title, enabled)
	case FlagSkipTaskbar:
		err := w.flags.SetSkipTaskbar(w.title, enabled)
		if stderrors.Is(err, platform.ErrNotSupported) {
			w.logger.Warn("Taskbar exclusion not supported on this platform")
			return nil
		}
		return err
	case FlagAlwaysOnTop:
		runtime.WindowSetAlwaysOnTop(ctx, enabled)
		return nil
	case FlagFullScreen:
		if enabled {
			runtime.WindowFullscreen(ctx)
		} else {
			runtime.WindowUnfullscreen(ctx)
		}
		return nil
	default:
		return errors.HandleValidationError("set_flag", "flag", string(flag), "unknown flag")
	}
}

func (w *wailsWindow) Deliver(msg bridge.Message) error {
	runtime.EventsEmit(w.context(), eventOutbound, msg)
	return nil
}

func (w *wailsWindow) Quit() {
	runtime.Quit(w.context())
}
