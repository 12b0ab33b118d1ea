package app

import (
	"context"
	"sync"
	"time"

	"sonacove/internal/bridge"
	"sonacove/internal/config"
	"sonacove/internal/database"
	"sonacove/internal/deeplink"
	"sonacove/internal/gateway"
	"sonacove/internal/geometry"
	"sonacove/internal/host"
	"sonacove/internal/host/wailshost"
	"sonacove/internal/hotkey"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/overlay"
	"sonacove/internal/overlayproc"
	"sonacove/internal/repository"
	"sonacove/internal/services"
	"sonacove/internal/tray"
)

const (
	// WindowTitle names the main window; native flag lookups rely on it
	WindowTitle = "Sonacove"

	DefaultWidth  = 1280
	DefaultHeight = 800

	shutdownTimeout = 10 * time.Second
)

// App wires the shell together and implements the Wails lifecycle hooks
type App struct {
	ctx    context.Context
	config *config.Config
	logger logging.Logger

	dbService   database.Service
	repository  repository.Repository
	analytics   *services.AnalyticsService
	updater     *services.UpdaterService
	helpDocs    *services.HelpDocsService
	windowState *services.WindowStateKeeper

	host     *wailshost.Host
	launcher *overlayproc.Launcher
	hotkeys  *hotkey.Manager
	registry *host.Registry
	bus      *gateway.LocalBus
	overlay  *overlay.Manager
	router   *deeplink.Router
	gateway  *gateway.Gateway
	tray     *tray.Manager

	firstLoad sync.Once
	stopOnce  sync.Once

	// links stay pending until the first page can receive a navigation
	linkMu    sync.Mutex
	pageReady bool
}

// NewApp builds every component. A database that cannot be opened leaves
// the shell running without persistence.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.HandleValidationError("new_app", "config", "nil", "config required")
	}
	if logger == nil {
		logger = logging.NewLevelLogger(cfg.LogLevel)
	}
	errors.SetDefaultRetryLogger(logger)

	a := &App{
		config:   cfg,
		logger:   logger,
		registry: host.NewRegistry(),
		bus:      gateway.NewLocalBus(),
	}

	a.dbService, a.repository = openStore(cfg, logger)

	a.launcher = overlayproc.NewLauncher(overlayproc.LauncherOptions{
		OnInbound: a.dispatch,
		Logger:    logger,
	})
	a.hotkeys = hotkey.NewManager(logger)
	a.host = wailshost.New(wailshost.Options{
		Title:    WindowTitle,
		Launcher: a.launcher,
		Hotkeys:  a.hotkeys,
		Logger:   logger,
	})
	a.host.Main().OnInbound(a.dispatch)

	// a nil *SQLiteRepository must not reach the services as a non-nil interface
	var analyticsRepo repository.AnalyticsRepository
	var stateRepo repository.WindowStateRepository
	retention := 0
	if a.repository != nil {
		analyticsRepo, stateRepo = a.repository, a.repository
		retention = database.DefaultConfig(cfg.DatabasePath).RetentionDays
	}
	a.analytics = services.NewAnalyticsService(analyticsRepo, retention, logger)
	a.updater = services.NewUpdaterService(a.host, cfg.Version, "", a.analytics, logger)
	a.helpDocs = services.NewHelpDocsService(cfg.HelpDocsURL, a.host, logger)
	a.windowState = services.NewWindowStateKeeper(stateRepo, services.MainWindowName, logger)

	routes := deeplink.RoutesFromConfig(cfg)
	a.overlay = overlay.NewManager(overlay.Options{
		Host:     a.host,
		Registry: a.registry,
		Shortcut: cfg.ClickThroughShortcut,
		Logger:   logger,
	})
	a.router = deeplink.NewRouter(deeplink.Options{
		Routes:   routes,
		Host:     a.host,
		Registry: a.registry,
		Overlay:  a.overlay,
		Logger:   logger,
	})
	a.gateway = gateway.New(gateway.Options{
		Host:     a.host,
		Registry: a.registry,
		Overlay:  a.overlay,
		Routes:   routes,
		Collaborators: gateway.Collaborators{
			Updater:   a.updater,
			HelpDocs:  a.helpDocs,
			Analytics: a.analytics,
		},
		AllowedHost: cfg.IsAllowedHost,
		Logger:      logger,
	})
	a.gateway.Register(a.bus)

	a.tray = tray.NewManager(tray.Dependencies{
		OnShow:            a.focusMain,
		OnAbout:           a.updater.ShowAbout,
		OnCheckForUpdates: a.updater.CheckForUpdates,
		OnHelp: func() {
			if err := a.helpDocs.Open(); err != nil {
				logging.LogShellError(logger, err, "open_help_docs", map[string]interface{}{"source": "tray"})
			}
		},
		OnQuit: func() { a.host.Main().Destroy() },
	}, logger)

	return a, nil
}

// openStore connects and migrates the SQLite store, returning nil values
// when persistence is unavailable
func openStore(cfg *config.Config, logger logging.Logger) (database.Service, repository.Repository) {
	dbConfig := database.DefaultConfig(cfg.DatabasePath)
	if cfg.Environment == config.EnvTest {
		dbConfig = database.TestConfig()
	}
	dbConfig.LoadFromEnvironment()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(ctx, dbConfig); err != nil {
		logging.LogShellError(logger, err, "open_store", map[string]interface{}{"path": dbConfig.Path})
		logger.Warn("Continuing without persistence: analytics and window placement will not be saved")
		return nil, nil
	}
	return dbService, repository.NewSQLiteRepository(dbService, logger)
}

// dispatch feeds a content-view message to the gateway. The main page's own
// location reports also keep the main window's URL current, which meeting
// detection depends on.
func (a *App) dispatch(sender host.Window, msg bridge.Message) {
	if main, ok := sender.(*wailshost.MainWindow); ok && msg.Channel == bridge.ChannelLocationChanged {
		if current, ok := msg.String(0); ok {
			main.SetURL(current)
		}
	}
	if a.bus.Dispatch(gateway.Event{Sender: sender, Message: msg}) == 0 {
		a.logger.Debug("No handler for channel", "channel", msg.Channel)
	}
}

// Startup is called once the Wails runtime is up
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.host.Attach(ctx)

	main := a.host.Main()
	a.registry.Set(main)
	main.OnClosed(func() { a.registry.Clear(main) })

	a.restoreWindowState(ctx)
	a.analytics.Start()
	a.tray.Start()

	if err := a.analytics.Capture("app_started", map[string]any{
		"version":  a.config.Version,
		"platform": a.host.Platform(),
	}); err != nil && !errors.IsUnavailable(err) {
		logging.LogShellError(a.logger, err, "capture_startup", nil)
	}

	a.logger.Info("Application started", "environment", a.config.Environment, "version", a.config.Version)
}

func (a *App) restoreWindowState(ctx context.Context) {
	displays := a.host.Displays()
	fallback := geometry.Rect{Width: DefaultWidth, Height: DefaultHeight}
	if len(displays) > 0 {
		primary := geometry.NewResolver(geometry.SourceFunc(func() []geometry.Display { return displays })).Primary()
		fallback = centred(primary.Bounds, DefaultWidth, DefaultHeight)
	}

	restoreCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	bounds, maximized := a.windowState.Restore(restoreCtx, displays, fallback)
	a.host.Main().Place(bounds, maximized)
}

// centred returns a width x height rectangle centred in area, shrunk to fit
func centred(area geometry.Rect, width, height int) geometry.Rect {
	width, height = min(width, area.Width), min(height, area.Height)
	return geometry.Rect{
		X:      area.X + (area.Width-width)/2,
		Y:      area.Y + (area.Height-height)/2,
		Width:  width,
		Height: height,
	}
}

// DomReady loads the first page: a deep link that started the app, or the
// landing page. Links delivered from here on are routed straight away.
func (a *App) DomReady(ctx context.Context) {
	a.firstLoad.Do(func() {
		a.linkMu.Lock()
		defer a.linkMu.Unlock()
		a.pageReady = true

		if a.router.ConsumePending() {
			return
		}
		if err := a.host.Main().LoadURL(a.config.Landing); err != nil {
			logging.LogShellError(a.logger, err, "load_landing", map[string]interface{}{"url": a.config.Landing})
		}
	})
}

// BeforeClose asks before leaving an active meeting and records the window
// placement when the close goes ahead
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	main := a.host.Main()
	if deeplink.IsMeetingURL(main.URL()) {
		leave := a.host.Confirm(
			"Leave Meeting?",
			"You are currently in a meeting. Are you sure you want to quit?",
			"Leave",
			"Stay",
		)
		if !leave {
			a.logger.Info("Quit declined, staying in meeting")
			return true
		}
	}

	saveCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.windowState.Save(saveCtx, main.Bounds(), main.IsMaximized()); err != nil {
		logging.LogShellError(a.logger, err, "save_window_state", nil)
	}
	return false
}

// Shutdown releases every resource. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) {
	a.stopOnce.Do(func() {
		a.logger.Info("Starting application shutdown sequence")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		a.overlay.Close(false, overlay.ReasonShutdown)
		if err := a.launcher.Close(shutdownCtx); err != nil {
			a.logger.Warn("Overlay link server did not stop cleanly", "error", err)
		}
		a.hotkeys.Close()
		a.tray.Stop()
		a.gateway.Unregister()
		a.analytics.Stop()
		a.host.Main().MarkClosed()

		if err := a.closeDatabaseConnection(shutdownCtx); err != nil {
			logging.LogShellError(a.logger, err, "close_database", nil)
		}
		a.logger.Info("Application shutdown completed")
	})
}

// closeDatabaseConnection closes the store, giving up when ctx expires
func (a *App) closeDatabaseConnection(ctx context.Context) error {
	if a.dbService == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- a.dbService.Close() }()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewShellErrorWithContext("shutdown", err, errors.ClassifyError(err),
				map[string]string{"operation": "close_connection"})
		}
		return nil
	case <-ctx.Done():
		return errors.NewShellError("shutdown", ctx.Err(), errors.ErrCodeTimeout)
	}
}

// OnSecondInstance handles a launch while this instance holds the lock. A
// deep link in the arguments is routed; otherwise the main window is raised.
func (a *App) OnSecondInstance(args []string) {
	if link, ok := deeplink.FromArgs(args, a.config.Scheme); ok {
		a.OpenURL(link)
		return
	}
	a.focusMain()
}

// OpenURL routes a deep link delivered by the OS. Links that arrive before
// the shell page is ready are kept until the first page load.
func (a *App) OpenURL(link string) {
	a.linkMu.Lock()
	if !a.pageReady {
		a.router.StorePending(link)
		a.linkMu.Unlock()
		return
	}
	a.linkMu.Unlock()
	a.router.HandleActivation(link)
}

// StorePendingLink keeps the deep link the process was launched with
func (a *App) StorePendingLink(link string) {
	a.router.StorePending(link)
}

func (a *App) focusMain() {
	main := a.host.Main()
	if main.IsMinimized() {
		main.Restore()
	}
	main.Show()
	main.Focus()
}

// Logger returns the application's structured logger
func (a *App) Logger() logging.Logger {
	return a.logger
}
