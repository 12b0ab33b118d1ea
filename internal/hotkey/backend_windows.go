//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"sonacove/internal/infrastructure/logging"
)

const (
	wmQuit   = 0x0012
	wmHotkey = 0x0312
	wmApp    = 0x8000

	modNoRepeat = 0x4000
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procGetCurrentThreadId = kernel32.NewProc("GetCurrentThreadId")
)

type point struct {
	X int32
	Y int32
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// request runs on the message-loop thread; hotkeys registered with a nil
// window belong to the thread that registered them
type request struct {
	fn   func() error
	done chan error
}

// windowsBackend owns one locked OS thread running a GetMessageW loop
type windowsBackend struct {
	trigger  func(id int)
	logger   logging.Logger
	requests chan request
	threadID uint32
	ready    chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

func newBackend(trigger func(id int), logger logging.Logger) backend {
	b := &windowsBackend{
		trigger:  trigger,
		logger:   logger,
		requests: make(chan request, 8),
		ready:    make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go b.loop()
	<-b.ready
	return b
}

func (b *windowsBackend) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.stopped)

	tid, _, _ := procGetCurrentThreadId.Call()
	b.threadID = uint32(tid)

	// Force creation of the thread message queue before anyone posts to it
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, wmApp, wmApp, 0)
	close(b.ready)

	for {
		r1, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r1) {
		case 0:
			return
		case -1:
			b.logger.Error("GetMessageW failed, hotkey loop stopping")
			return
		}

		switch m.Message {
		case wmHotkey:
			// Off the loop thread: the manager may be waiting on run while holding its lock
			go b.trigger(int(m.WParam))
		case wmApp:
			b.drain()
		}
	}
}

func (b *windowsBackend) drain() {
	for {
		select {
		case req := <-b.requests:
			req.done <- req.fn()
		default:
			return
		}
	}
}

// run executes fn on the loop thread and waits for its result
func (b *windowsBackend) run(fn func() error) error {
	select {
	case <-b.stopped:
		return fmt.Errorf("hotkey loop stopped")
	default:
	}
	req := request{fn: fn, done: make(chan error, 1)}
	b.requests <- req
	if ret, _, err := procPostThreadMessageW.Call(uintptr(b.threadID), wmApp, 0, 0); ret == 0 {
		return fmt.Errorf("PostThreadMessageW: %w", err)
	}
	select {
	case err := <-req.done:
		return err
	case <-b.stopped:
		return fmt.Errorf("hotkey loop stopped")
	}
}

func (b *windowsBackend) register(id int, acc Accelerator) error {
	return b.run(func() error {
		ret, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(acc.Modifiers)|modNoRepeat, uintptr(acc.Key))
		if ret == 0 {
			return fmt.Errorf("RegisterHotKey %s: %w", acc.Name, err)
		}
		return nil
	})
}

func (b *windowsBackend) unregister(id int) {
	_ = b.run(func() error {
		procUnregisterHotKey.Call(0, uintptr(id))
		return nil
	})
}

func (b *windowsBackend) close() {
	b.once.Do(func() {
		procPostThreadMessageW.Call(uintptr(b.threadID), wmQuit, 0, 0)
		<-b.stopped
	})
}
