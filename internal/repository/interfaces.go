package repository

import (
	"context"
	"time"

	"sonacove/internal/types"
)

// AnalyticsRepository queues analytics events until they are uploaded
type AnalyticsRepository interface {
	EnqueueEvent(ctx context.Context, event types.AnalyticsEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]types.AnalyticsEvent, error)
	MarkEventsSent(ctx context.Context, ids []string, sentAt time.Time) error
	CountPendingEvents(ctx context.Context) (int64, error)
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// WindowStateRepository remembers window placement between runs
type WindowStateRepository interface {
	SaveWindowState(ctx context.Context, state types.WindowState) error
	GetWindowState(ctx context.Context, name string) (*types.WindowState, error)
}

// Repository is everything the shell persists
type Repository interface {
	AnalyticsRepository
	WindowStateRepository

	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
}
