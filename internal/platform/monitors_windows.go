//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"sonacove/internal/geometry"
)

const monitorInfoPrimary = 0x00000001

var (
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

type monitorInfoEx struct {
	cbSize    uint32
	rcMonitor windows.Rect
	rcWork    windows.Rect
	dwFlags   uint32
	szDevice  [32]uint16
}

// callbacks are a finite resource, so one is shared by every enumeration
var (
	enumMu       sync.Mutex
	enumFound    []geometry.Display
	enumCallback = windows.NewCallback(func(hmon, hdc uintptr, clip *windows.Rect, data uintptr) uintptr {
		var info monitorInfoEx
		info.cbSize = uint32(unsafe.Sizeof(info))
		if r, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&info))); r == 0 {
			return 1
		}
		device := windows.UTF16ToString(info.szDevice[:])
		b := info.rcMonitor
		enumFound = append(enumFound, geometry.Display{
			ID:      device,
			Label:   device,
			Bounds:  geometry.Rect{X: int(b.Left), Y: int(b.Top), Width: int(b.Right - b.Left), Height: int(b.Bottom - b.Top)},
			Primary: info.dwFlags&monitorInfoPrimary != 0,
		})
		return 1
	})
)

// Monitors lists attached displays in virtual-screen coordinates
func Monitors() ([]geometry.Display, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumFound = nil
	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	found := enumFound
	enumFound = nil
	return found, nil
}
