package tray

import (
	"os"
	"path/filepath"
	"sync"

	"sonacove/internal/infrastructure/logging"
)

// Dependencies are the actions behind the tray menu. Nil actions are skipped.
type Dependencies struct {
	OnShow            func()
	OnAbout           func()
	OnCheckForUpdates func()
	OnHelp            func()
	OnQuit            func()
}

// Manager owns the notification-area icon and its menu
type Manager struct {
	deps   Dependencies
	logger logging.Logger
	once   sync.Once
	stop   chan struct{}
	closed sync.Once
}

func NewManager(deps Dependencies, logger logging.Logger) *Manager {
	return &Manager{deps: deps, logger: logging.Named(logger, "tray"), stop: make(chan struct{})}
}

func (m *Manager) closeStop() {
	m.closed.Do(func() { close(m.stop) })
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

// iconCandidates lists where the tray icon is looked for next to the binary
func iconCandidates(exeDir string) []string {
	return []string{
		filepath.Join(exeDir, "icon.ico"),
		filepath.Join(exeDir, "..", "icon.ico"),
		filepath.Join(exeDir, "build", "windows", "icon.ico"),
		filepath.Join(exeDir, "..", "build", "windows", "icon.ico"),
	}
}

// loadIcon returns the first readable icon, or nil
func loadIcon(paths []string) []byte {
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Clean(p))
		if err == nil && len(data) > 0 {
			return data
		}
	}
	return nil
}
