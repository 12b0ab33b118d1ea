//go:build !windows && !darwin && !linux

package hotkey

import (
	"fmt"
	"runtime"

	"sonacove/internal/infrastructure/logging"
)

type unsupportedBackend struct{}

func newBackend(trigger func(id int), logger logging.Logger) backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) register(id int, acc Accelerator) error {
	return fmt.Errorf("global hotkeys are not supported on %s", runtime.GOOS)
}

func (unsupportedBackend) unregister(id int) {}

func (unsupportedBackend) close() {}
