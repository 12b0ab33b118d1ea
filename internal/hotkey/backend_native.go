//go:build darwin || linux

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"sonacove/internal/infrastructure/logging"
)

// keys the native backend can bind, by Windows virtual-key code
var nativeKeys = map[uint32]hotkey.Key{
	0x20: hotkey.KeySpace,
	0x0D: hotkey.KeyReturn,
	0x09: hotkey.KeyTab,
	0x1B: hotkey.KeyEscape,
	0x2E: hotkey.KeyDelete,
	0x25: hotkey.KeyLeft,
	0x26: hotkey.KeyUp,
	0x27: hotkey.KeyRight,
	0x28: hotkey.KeyDown,
	0x70: hotkey.KeyF1,
	0x71: hotkey.KeyF2,
	0x72: hotkey.KeyF3,
	0x73: hotkey.KeyF4,
	0x74: hotkey.KeyF5,
	0x75: hotkey.KeyF6,
	0x76: hotkey.KeyF7,
	0x77: hotkey.KeyF8,
	0x78: hotkey.KeyF9,
	0x79: hotkey.KeyF10,
	0x7A: hotkey.KeyF11,
	0x7B: hotkey.KeyF12,
	'0':  hotkey.Key0,
	'1':  hotkey.Key1,
	'2':  hotkey.Key2,
	'3':  hotkey.Key3,
	'4':  hotkey.Key4,
	'5':  hotkey.Key5,
	'6':  hotkey.Key6,
	'7':  hotkey.Key7,
	'8':  hotkey.Key8,
	'9':  hotkey.Key9,
	'A':  hotkey.KeyA,
	'B':  hotkey.KeyB,
	'C':  hotkey.KeyC,
	'D':  hotkey.KeyD,
	'E':  hotkey.KeyE,
	'F':  hotkey.KeyF,
	'G':  hotkey.KeyG,
	'H':  hotkey.KeyH,
	'I':  hotkey.KeyI,
	'J':  hotkey.KeyJ,
	'K':  hotkey.KeyK,
	'L':  hotkey.KeyL,
	'M':  hotkey.KeyM,
	'N':  hotkey.KeyN,
	'O':  hotkey.KeyO,
	'P':  hotkey.KeyP,
	'Q':  hotkey.KeyQ,
	'R':  hotkey.KeyR,
	'S':  hotkey.KeyS,
	'T':  hotkey.KeyT,
	'U':  hotkey.KeyU,
	'V':  hotkey.KeyV,
	'W':  hotkey.KeyW,
	'X':  hotkey.KeyX,
	'Y':  hotkey.KeyY,
	'Z':  hotkey.KeyZ,
}

// toNative converts acc to the library's modifiers and key
func toNative(acc Accelerator) ([]hotkey.Modifier, hotkey.Key, error) {
	key, ok := nativeKeys[acc.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key in %s cannot be bound on this platform", acc.Name)
	}
	return nativeModifiers(acc.Modifiers), key, nil
}

type nativeBinding struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// nativeBackend runs one listener goroutine per registered hotkey
type nativeBackend struct {
	trigger func(id int)
	logger  logging.Logger

	mu   sync.Mutex
	keys map[int]*nativeBinding
}

func newBackend(trigger func(id int), logger logging.Logger) backend {
	return &nativeBackend{
		trigger: trigger,
		logger:  logger,
		keys:    make(map[int]*nativeBinding),
	}
}

func (b *nativeBackend) register(id int, acc Accelerator) error {
	mods, key, err := toNative(acc)
	if err != nil {
		return err
	}
	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register %s: %w", acc.Name, err)
	}

	nb := &nativeBinding{hk: hk, stop: make(chan struct{})}
	b.mu.Lock()
	b.keys[id] = nb
	b.mu.Unlock()

	go b.listen(id, nb)
	return nil
}

// listen never waits on the manager lock's holder, so unregister can be
// called while a press is being delivered
func (b *nativeBackend) listen(id int, nb *nativeBinding) {
	keydown := nb.hk.Keydown()
	for {
		select {
		case <-nb.stop:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			select {
			case <-nb.stop:
				return
			default:
			}
			b.trigger(id)
		}
	}
}

func (b *nativeBackend) unregister(id int) {
	b.mu.Lock()
	nb, ok := b.keys[id]
	delete(b.keys, id)
	b.mu.Unlock()
	if !ok {
		return
	}
	close(nb.stop)
	if err := nb.hk.Unregister(); err != nil {
		b.logger.Warn("Failed to release hotkey", "id", id, "error", err)
	}
}

func (b *nativeBackend) close() {
	b.mu.Lock()
	ids := make([]int, 0, len(b.keys))
	for id := range b.keys {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		b.unregister(id)
	}
}
