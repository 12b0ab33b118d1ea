package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"sonacove/internal/app"
	"sonacove/internal/bridge"
	"sonacove/internal/config"
	"sonacove/internal/deeplink"
	"sonacove/internal/host/wailshost"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/overlayproc"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed all:frontend/overlay
var overlayAssets embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	appLogger := logging.NewLevelLogger(cfg.LogLevel)

	if link, ok := overlayproc.ChildLink(os.Args); ok {
		runOverlay(link, appLogger)
		return
	}
	runShell(cfg, appLogger)
}

// runOverlay is the entry point of the annotation overlay child process
func runOverlay(link string, appLogger logging.Logger) {
	pages, err := fs.Sub(overlayAssets, "frontend/overlay")
	if err != nil {
		log.Fatal(err)
	}
	if err := overlayproc.RunChild(context.Background(), link, pages, appLogger); err != nil {
		os.Exit(1)
	}
}

func runShell(cfg *config.Config, appLogger logging.Logger) {
	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		log.Fatal(err)
	}
	if link, ok := deeplink.FromArgs(os.Args[1:], cfg.Scheme); ok {
		application.StorePendingLink(link)
	}

	pages, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		log.Fatal(err)
	}

	err = wails.Run(&options.App{
		Title:            app.WindowTitle,
		Width:            app.DefaultWidth,
		Height:           app.DefaultHeight,
		MinWidth:         800,
		MinHeight:        600,
		StartHidden:      false,
		BackgroundColour: &options.RGBA{R: 17, G: 17, B: 17, A: 255},
		AssetServer: &assetserver.Options{
			Assets:  pages,
			Handler: wailshost.AssetHandler(bridge.Main()),
		},
		Logger:           logging.NewWailsLoggerAdapter(appLogger, "shell"),
		LogLevel:         logger.INFO,
		OnStartup:        application.Startup,
		OnDomReady:       application.DomReady,
		OnBeforeClose:    application.BeforeClose,
		OnShutdown:       application.Shutdown,
		WindowStartState: options.Normal,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "com.sonacove.meets",
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				application.OnSecondInstance(data.Args)
			},
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
			ZoomFactor:           1.0,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  false,
				HideTitleBar:               false,
				FullSizeContent:            false,
				UseToolbar:                 false,
				HideToolbarSeparator:       true,
			},
			Appearance: mac.NSAppearanceNameDarkAqua,
			About: &mac.AboutInfo{
				Title:   "Sonacove",
				Message: "Version " + cfg.Version,
			},
			OnUrlOpen: application.OpenURL,
		},
	})

	if err != nil {
		log.Fatal(err)
	}
}
