package host

import "sync"

// Registry holds the current main window. It is set when the main window is
// created and cleared when it is destroyed.
type Registry struct {
	mu  sync.RWMutex
	win Window
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Set makes w the current main window
func (r *Registry) Set(w Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.win = w
}

// Clear empties the slot if w is still the current main window
func (r *Registry) Clear(w Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.win == w {
		r.win = nil
	}
}

// Current returns the main window if one exists and has not been destroyed
func (r *Registry) Current() (Window, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	w := r.win
	r.mu.RUnlock()

	if w == nil || w.IsDestroyed() {
		return nil, false
	}
	return w, true
}
