package services

import (
	"fmt"
	"runtime"
	"strings"

	"sonacove/internal/infrastructure/logging"
)

const appName = "Sonacove"

// Dialogs shows informational dialogs
type Dialogs interface {
	Message(title, message string)
}

// EventCapturer records an analytics event
type EventCapturer interface {
	Capture(event string, properties map[string]any) error
}

// UpdaterService answers the about and manual update-check requests. The
// update feed is not wired up, so a manual check always reports the running
// version as current.
type UpdaterService struct {
	dialogs   Dialogs
	version   string
	platform  string
	analytics EventCapturer
	logger    logging.Logger
}

// NewUpdaterService creates the service; analytics may be nil
func NewUpdaterService(dialogs Dialogs, version, platform string, analytics EventCapturer, logger logging.Logger) *UpdaterService {
	if version == "" {
		version = "dev"
	}
	if platform == "" {
		platform = runtime.GOOS
	}
	return &UpdaterService{
		dialogs:   dialogs,
		version:   version,
		platform:  platform,
		analytics: analytics,
		logger:    logging.Named(logger, "updater"),
	}
}

// ShowAbout shows the version and runtime details
func (u *UpdaterService) ShowAbout() {
	if u.dialogs == nil {
		return
	}
	u.dialogs.Message("About "+appName, u.AboutText())
}

// AboutText is the body of the about dialog
func (u *UpdaterService) AboutText() string {
	return strings.Join([]string{
		appName,
		"",
		"Version: " + u.version,
		"Go: " + runtime.Version(),
		fmt.Sprintf("Platform: %s %s", u.platform, runtime.GOARCH),
	}, "\n")
}

// CheckForUpdates reports the running version and records the check
func (u *UpdaterService) CheckForUpdates() {
	u.logger.Info("Manual update check", "version", u.version)
	if u.dialogs != nil {
		u.dialogs.Message("No Updates Available", fmt.Sprintf("You're on the latest version (%s).", u.version))
	}
	if u.analytics == nil {
		return
	}
	if err := u.analytics.Capture("update_check_manual", map[string]any{"version": u.version}); err != nil {
		logging.LogShellError(u.logger, err, "update_check_manual", nil)
	}
}
