//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>
#include <stdlib.h>

#define FLAG_SHARING   1
#define FLAG_IGNORE    2
#define FLAG_ALLSPACES 3
#define FLAG_SKIPDOCK  4

static NSWindow* findWindowByTitle(NSString *title) {
    for (NSWindow *w in [NSApp windows]) {
        if ([[w title] isEqualToString:title]) {
            return w;
        }
    }
    return nil;
}

static void applyFlag(NSWindow *w, int flag, BOOL on) {
    switch (flag) {
        case FLAG_SHARING:
            w.sharingType = on ? NSWindowSharingNone : NSWindowSharingReadOnly;
            break;
        case FLAG_IGNORE:
            w.ignoresMouseEvents = on;
            break;
        case FLAG_ALLSPACES:
            if (on) {
                w.collectionBehavior |= NSWindowCollectionBehaviorCanJoinAllSpaces |
                    NSWindowCollectionBehaviorFullScreenAuxiliary;
            } else {
                w.collectionBehavior &= ~(NSWindowCollectionBehaviorCanJoinAllSpaces |
                    NSWindowCollectionBehaviorFullScreenAuxiliary);
            }
            break;
        case FLAG_SKIPDOCK:
            // the overlay process owns no other window, so the policy is process wide
            [NSApp setActivationPolicy:(on ? NSApplicationActivationPolicyAccessory
                                           : NSApplicationActivationPolicyRegular)];
            if (on) {
                w.collectionBehavior |= NSWindowCollectionBehaviorIgnoresCycle;
            } else {
                w.collectionBehavior &= ~NSWindowCollectionBehaviorIgnoresCycle;
            }
            break;
    }
}

// Returns 0 when no window has the title. AppKit must be touched on the main thread.
static int setWindowFlag(const char *title, int flag, int on) {
    NSString *t = [NSString stringWithUTF8String:title];
    __block int found = 0;
    void (^apply)(void) = ^{
        NSWindow *w = findWindowByTitle(t);
        if (w == nil) {
            return;
        }
        applyFlag(w, flag, on ? YES : NO);
        found = 1;
    };
    if ([NSThread isMainThread]) {
        apply();
    } else {
        dispatch_sync(dispatch_get_main_queue(), apply);
    }
    return found;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// DarwinAPI implements WindowFlags with AppKit
type DarwinAPI struct{}

// NewDarwinAPI creates a new Darwin API instance
func NewDarwinAPI() *DarwinAPI {
	return &DarwinAPI{}
}

// NewWindowFlags creates the WindowFlags for macOS
func NewWindowFlags() WindowFlags {
	return NewDarwinAPI()
}

func (d *DarwinAPI) set(title string, flag C.int, on bool) error {
	cTitle := C.CString(title)
	defer C.free(unsafe.Pointer(cTitle))

	onFlag := C.int(0)
	if on {
		onFlag = 1
	}
	if C.setWindowFlag(cTitle, flag, onFlag) == 0 {
		return fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	}
	return nil
}

// SetCaptureExcluded sets NSWindowSharingNone
func (d *DarwinAPI) SetCaptureExcluded(title string, excluded bool) error {
	return d.set(title, C.FLAG_SHARING, excluded)
}

func (d *DarwinAPI) SetClickThrough(title string, ignore bool) error {
	return d.set(title, C.FLAG_IGNORE, ignore)
}

func (d *DarwinAPI) SetVisibleOnAllWorkspaces(title string, enabled bool) error {
	return d.set(title, C.FLAG_ALLSPACES, enabled)
}

// SetSkipTaskbar switches to the accessory activation policy, which removes
// the dock icon and the Cmd+Tab entry
func (d *DarwinAPI) SetSkipTaskbar(title string, skip bool) error {
	return d.set(title, C.FLAG_SKIPDOCK, skip)
}
