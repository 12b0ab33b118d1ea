package services

import (
	"context"
	"time"

	"sonacove/internal/geometry"
	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/repository"
	"sonacove/internal/types"
)

const (
	MainWindowName = "main"

	// A restored window must show at least this much of itself on some display
	minVisibleEdge = 100
)

// WindowStateKeeper remembers where a window was placed between runs
type WindowStateKeeper struct {
	repo   repository.WindowStateRepository
	name   string
	logger logging.Logger
	now    func() time.Time
}

func NewWindowStateKeeper(repo repository.WindowStateRepository, name string, logger logging.Logger) *WindowStateKeeper {
	if name == "" {
		name = MainWindowName
	}
	return &WindowStateKeeper{
		repo:   repo,
		name:   name,
		logger: logging.Named(logger, "window-state"),
		now:    time.Now,
	}
}

// Restore returns the remembered bounds when they are still visible on one of
// displays, otherwise fallback
func (k *WindowStateKeeper) Restore(ctx context.Context, displays []geometry.Display, fallback geometry.Rect) (geometry.Rect, bool) {
	if k.repo == nil {
		return fallback, false
	}
	state, err := k.repo.GetWindowState(ctx, k.name)
	if err != nil {
		if !errors.IsNotFound(err) {
			logging.LogShellError(k.logger, err, "restore_window_state", map[string]interface{}{"window": k.name})
		}
		return fallback, false
	}

	bounds := geometry.Rect{X: state.X, Y: state.Y, Width: state.Width, Height: state.Height}
	if !visibleOn(bounds, displays) {
		k.logger.Info("Remembered bounds are off-screen, using default", "window", k.name, "bounds", bounds.String())
		return fallback, state.Maximized
	}
	return bounds, state.Maximized
}

// Save stores bounds; empty bounds are ignored
func (k *WindowStateKeeper) Save(ctx context.Context, bounds geometry.Rect, maximized bool) error {
	if k.repo == nil || bounds.Empty() {
		return nil
	}
	state := types.WindowState{
		Name:      k.name,
		X:         bounds.X,
		Y:         bounds.Y,
		Width:     bounds.Width,
		Height:    bounds.Height,
		Maximized: maximized,
		UpdatedAt: k.now(),
	}
	if err := k.repo.SaveWindowState(ctx, state); err != nil {
		return errors.WrapErrorWithContext("save_window_state", err, map[string]string{"window": k.name})
	}
	return nil
}

func visibleOn(bounds geometry.Rect, displays []geometry.Display) bool {
	for _, d := range displays {
		overlap := bounds.Intersect(d.Bounds)
		if overlap.Width >= min(minVisibleEdge, bounds.Width) && overlap.Height >= min(minVisibleEdge, bounds.Height) {
			return true
		}
	}
	return false
}
