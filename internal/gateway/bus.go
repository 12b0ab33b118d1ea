package gateway

import (
	"sync"

	"sonacove/internal/bridge"
	"sonacove/internal/host"
)

// Event is one inbound message together with the window whose content view sent it
type Event struct {
	Channel string
	Sender  host.Window
	Message bridge.Message
}

// Bus delivers inbound messages to listeners. On returns a function that
// removes the listener it added.
type Bus interface {
	On(channel string, fn func(Event)) (off func())
}

type listener struct {
	id uint64
	fn func(Event)
}

// LocalBus is an in-process Bus. Host adapters feed it through Dispatch.
type LocalBus struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]listener
}

func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: make(map[string][]listener)}
}

func (b *LocalBus) On(channel string, fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[channel] = append(b.listeners[channel], listener{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(channel, id) })
	}
}

func (b *LocalBus) remove(channel string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.listeners[channel]
	for i, l := range current {
		if l.id == id {
			b.listeners[channel] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(b.listeners[channel]) == 0 {
		delete(b.listeners, channel)
	}
}

// Dispatch runs every listener for ev.Channel in registration order and
// returns how many ran. Listeners run outside the bus lock.
func (b *LocalBus) Dispatch(ev Event) int {
	if ev.Channel == "" {
		ev.Channel = ev.Message.Channel
	}
	b.mu.RLock()
	targets := append([]listener(nil), b.listeners[ev.Channel]...)
	b.mu.RUnlock()

	for _, l := range targets {
		l.fn(ev)
	}
	return len(targets)
}

// Listeners returns the number of listeners on channel
func (b *LocalBus) Listeners(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[channel])
}
