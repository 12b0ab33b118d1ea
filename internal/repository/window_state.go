package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/types"
)

// SaveWindowState inserts or replaces the state stored under state.Name
func (r *SQLiteRepository) SaveWindowState(ctx context.Context, state types.WindowState) error {
	if state.Name == "" {
		return repoerrors.HandleValidationError("SaveWindowState", "name", "", "window name required")
	}
	if !state.Usable() {
		return repoerrors.HandleValidationError("SaveWindowState", "size",
			fmt.Sprintf("%dx%d", state.Width, state.Height), "width and height must be positive")
	}
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	return repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO window_state (name, x, y, width, height, maximized, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				x = excluded.x,
				y = excluded.y,
				width = excluded.width,
				height = excluded.height,
				maximized = excluded.maximized,
				updated_at = excluded.updated_at`,
			state.Name, state.X, state.Y, state.Width, state.Height, state.Maximized, updated.UnixMilli(),
		)
		return r.wrap("SaveWindowState", err, map[string]string{"name": state.Name})
	})
}

// GetWindowState returns the stored state, or a NotFound error
func (r *SQLiteRepository) GetWindowState(ctx context.Context, name string) (*types.WindowState, error) {
	var (
		state     types.WindowState
		updatedMs int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT name, x, y, width, height, maximized, updated_at FROM window_state WHERE name = ?`, name,
	).Scan(&state.Name, &state.X, &state.Y, &state.Width, &state.Height, &state.Maximized, &updatedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repoerrors.HandleNotFound("GetWindowState", "window_state", name)
	}
	if err != nil {
		return nil, r.wrap("GetWindowState", err, map[string]string{"name": name})
	}
	state.UpdatedAt = time.UnixMilli(updatedMs)
	return &state, nil
}
