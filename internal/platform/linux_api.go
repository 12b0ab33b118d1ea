//go:build linux

package platform

// LinuxAPI implements WindowFlags for Linux, where none of the settings are
// reachable through the webview runtime
type LinuxAPI struct{}

// NewLinuxAPI creates a new Linux API instance
func NewLinuxAPI() *LinuxAPI {
	return &LinuxAPI{}
}

// NewWindowFlags creates the WindowFlags for Linux
func NewWindowFlags() WindowFlags {
	return NewLinuxAPI()
}

func (l *LinuxAPI) SetCaptureExcluded(title string, excluded bool) error {
	return ErrNotSupported
}

func (l *LinuxAPI) SetClickThrough(title string, ignore bool) error {
	return ErrNotSupported
}

func (l *LinuxAPI) SetVisibleOnAllWorkspaces(title string, enabled bool) error {
	return ErrNotSupported
}

func (l *LinuxAPI) SetSkipTaskbar(title string, skip bool) error {
	return ErrNotSupported
}
