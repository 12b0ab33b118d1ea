//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gwlExStyle = -20

	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExAppWindow   = 0x00040000

	wdaNone               = 0x00000000
	wdaExcludeFromCapture = 0x00000011
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procSetWindowDisplayAffinity = user32.NewProc("SetWindowDisplayAffinity")
	procGetWindowLongPtrW        = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW        = user32.NewProc("SetWindowLongPtrW")
)

// WindowsAPI implements WindowFlags with user32 calls
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewWindowFlags creates the WindowFlags for Windows
func NewWindowFlags() WindowFlags {
	return NewWindowsAPI()
}

func (w *WindowsAPI) findWindow(title string) (uintptr, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("window title %q: %w", title, err)
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	}
	return hwnd, nil
}

// SetCaptureExcluded uses WDA_EXCLUDEFROMCAPTURE, available from Windows 10 2004
func (w *WindowsAPI) SetCaptureExcluded(title string, excluded bool) error {
	if err := procSetWindowDisplayAffinity.Find(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	hwnd, err := w.findWindow(title)
	if err != nil {
		return err
	}

	affinity := uintptr(wdaNone)
	if excluded {
		affinity = wdaExcludeFromCapture
	}
	ret, _, callErr := procSetWindowDisplayAffinity.Call(hwnd, affinity)
	if ret == 0 {
		return fmt.Errorf("SetWindowDisplayAffinity: %w", callErr)
	}
	return nil
}

// updateExStyle rewrites the extended style of the titled window
func (w *WindowsAPI) updateExStyle(title string, update func(style uintptr) uintptr) error {
	hwnd, err := w.findWindow(title)
	if err != nil {
		return err
	}

	// gwlExStyle is negative; convert through a variable so the uintptr conversion is legal
	index := int32(gwlExStyle)
	style, _, _ := procGetWindowLongPtrW.Call(hwnd, uintptr(index))
	next := update(style)
	if next == style {
		return nil
	}

	ret, _, callErr := procSetWindowLongPtrW.Call(hwnd, uintptr(index), next)
	// A zero return is only a failure when the last error is set
	if ret == 0 && callErr != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetWindowLongPtrW: %w", callErr)
	}
	return nil
}

// SetClickThrough toggles WS_EX_TRANSPARENT on a layered window
func (w *WindowsAPI) SetClickThrough(title string, ignore bool) error {
	return w.updateExStyle(title, func(style uintptr) uintptr {
		next := style | wsExLayered
		if ignore {
			return next | wsExTransparent
		}
		return next &^ wsExTransparent
	})
}

// SetSkipTaskbar swaps WS_EX_APPWINDOW for WS_EX_TOOLWINDOW, which also
// hides the window from Alt+Tab
func (w *WindowsAPI) SetSkipTaskbar(title string, skip bool) error {
	return w.updateExStyle(title, func(style uintptr) uintptr {
		if skip {
			return (style | wsExToolWindow) &^ wsExAppWindow
		}
		return style &^ wsExToolWindow
	})
}

// SetVisibleOnAllWorkspaces is a no-op: topmost windows already follow the
// user across virtual desktops
func (w *WindowsAPI) SetVisibleOnAllWorkspaces(title string, enabled bool) error {
	return nil
}
