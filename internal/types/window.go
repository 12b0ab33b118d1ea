package types

import "time"

// WindowState is the remembered placement of a named window
type WindowState struct {
	Name      string    `json:"name"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Maximized bool      `json:"maximized"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Usable reports whether the state describes a window that can be restored
func (w WindowState) Usable() bool {
	return w.Width > 0 && w.Height > 0
}
