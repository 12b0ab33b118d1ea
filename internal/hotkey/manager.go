// Package hotkey registers system-wide keyboard shortcuts.
package hotkey

import (
	"sync"

	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// backend talks to the OS. Callbacks arrive through the trigger function
// passed to newBackend.
type backend interface {
	register(id int, acc Accelerator) error
	unregister(id int)
	close()
}

type binding struct {
	id  int
	acc Accelerator
	fn  func()
}

// Manager owns every global hotkey of the process
type Manager struct {
	mu       sync.Mutex
	backend  backend
	bindings map[string]*binding // by canonical accelerator name
	byID     map[int]*binding
	nextID   int
	closed   bool
	logger   logging.Logger
}

// NewManager creates a manager backed by the OS hotkey facility. Where the OS
// has none, Register returns an Unavailable error.
func NewManager(logger logging.Logger) *Manager {
	m := newManager(logger)
	m.backend = newBackend(m.trigger, m.logger)
	return m
}

func newManager(logger logging.Logger) *Manager {
	return &Manager{
		bindings: make(map[string]*binding),
		byID:     make(map[int]*binding),
		nextID:   1,
		logger:   logging.Named(logger, "hotkey"),
	}
}

// Register binds accelerator to fn
func (m *Manager) Register(accelerator string, fn func()) error {
	acc, err := Parse(accelerator)
	if err != nil {
		return errors.HandleValidationError("register_hotkey", "accelerator", accelerator, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.HandleUnavailable("register_hotkey", accelerator, "manager closed")
	}
	if _, taken := m.bindings[acc.Name]; taken {
		return errors.NewShellErrorWithContext("register_hotkey", nil, errors.ErrCodeConstraint,
			map[string]string{"accelerator": acc.Name})
	}

	b := &binding{id: m.nextID, acc: acc, fn: fn}
	if err := m.backend.register(b.id, acc); err != nil {
		return errors.NewShellErrorWithContext("register_hotkey", err, errors.ErrCodeUnavailable,
			map[string]string{"accelerator": acc.Name})
	}
	m.nextID++
	m.bindings[acc.Name] = b
	m.byID[b.id] = b
	m.logger.Info("Hotkey registered", "accelerator", acc.Name)
	return nil
}

// Unregister removes the binding for accelerator, if any
func (m *Manager) Unregister(accelerator string) {
	acc, err := Parse(accelerator)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bindings[acc.Name]
	if !ok {
		return
	}
	delete(m.bindings, acc.Name)
	delete(m.byID, b.id)
	if !m.closed {
		m.backend.unregister(b.id)
	}
	m.logger.Info("Hotkey unregistered", "accelerator", acc.Name)
}

// Registered reports whether accelerator currently has a binding
func (m *Manager) Registered(accelerator string) bool {
	acc, err := Parse(accelerator)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bindings[acc.Name]
	return ok
}

// Close releases every hotkey and stops the OS loop
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, b := range m.bindings {
		m.backend.unregister(b.id)
	}
	m.bindings = make(map[string]*binding)
	m.byID = make(map[int]*binding)
	m.backend.close()
}

func (m *Manager) trigger(id int) {
	m.mu.Lock()
	b, ok := m.byID[id]
	m.mu.Unlock()
	if !ok || b.fn == nil {
		return
	}
	m.logger.Debug("Hotkey pressed", "accelerator", b.acc.Name)
	b.fn()
}
