//go:build windows

package tray

import (
	"os"
	"path/filepath"

	"github.com/getlantern/systray"
)

// Start shows the tray icon. systray runs its own message loop, so it can
// live beside the webview's.
func (m *Manager) Start() {
	m.once.Do(func() {
		go systray.Run(m.onReady, func() {})
	})
}

// Stop removes the icon
func (m *Manager) Stop() {
	m.closeStop()
	systray.Quit()
}

func (m *Manager) onReady() {
	systray.SetTitle("Sonacove")
	systray.SetTooltip("Sonacove Meets")
	if exe, err := os.Executable(); err == nil {
		if icon := loadIcon(iconCandidates(filepath.Dir(exe))); icon != nil {
			systray.SetIcon(icon)
		} else {
			m.logger.Debug("No tray icon found")
		}
	}

	itemShow := systray.AddMenuItem("Show Sonacove", "Bring the main window to the front")
	itemUpdates := systray.AddMenuItem("Check for Updates", "Check for a newer version")
	itemHelp := systray.AddMenuItem("Help", "Open the documentation")
	itemAbout := systray.AddMenuItem("About", "About Sonacove")
	systray.AddSeparator()
	itemQuit := systray.AddMenuItem("Quit", "Quit Sonacove")

	go func() {
		for {
			select {
			case <-m.stop:
				return
			case <-itemShow.ClickedCh:
				call(m.deps.OnShow)
			case <-itemUpdates.ClickedCh:
				call(m.deps.OnCheckForUpdates)
			case <-itemHelp.ClickedCh:
				call(m.deps.OnHelp)
			case <-itemAbout.ClickedCh:
				call(m.deps.OnAbout)
			case <-itemQuit.ClickedCh:
				call(m.deps.OnQuit)
				m.Stop()
				return
			}
		}
	}()
}
