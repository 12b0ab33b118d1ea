//go:build !windows

package tray

// Start is a no-op: macOS gets the application menu from the webview
// runtime and Linux desktops vary too much for a tray icon
func (m *Manager) Start() {
	m.once.Do(func() {
		m.logger.Debug("Tray icon not available on this platform")
	})
}

func (m *Manager) Stop() {
	m.closeStop()
}
