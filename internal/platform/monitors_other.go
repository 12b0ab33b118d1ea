//go:build !windows

package platform

import "sonacove/internal/geometry"

// Monitors is only implemented on Windows; elsewhere the webview runtime's
// screen list is used instead
func Monitors() ([]geometry.Display, error) {
	return nil, ErrNotSupported
}
