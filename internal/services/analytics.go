package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
	"sonacove/internal/repository"
	"sonacove/internal/types"
)

const (
	defaultPruneInterval = time.Hour
	captureTimeout       = 5 * time.Second
)

// AnalyticsService queues product analytics events captured by the web app.
// Events stay in the local queue until an uploader marks them sent; anything
// older than the retention window is pruned.
type AnalyticsService struct {
	repo      repository.AnalyticsRepository
	logger    logging.Logger
	retention time.Duration
	interval  time.Duration

	mutex   sync.Mutex
	ticker  *time.Ticker
	stopCh  chan struct{}
	enabled bool

	now   func() time.Time
	newID func() string
}

// NewAnalyticsService creates the service. retentionDays <= 0 disables pruning.
func NewAnalyticsService(repo repository.AnalyticsRepository, retentionDays int, logger logging.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:      repo,
		logger:    logging.Named(logger, "analytics"),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  defaultPruneInterval,
		enabled:   true,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Capture queues one event
func (a *AnalyticsService) Capture(event string, properties map[string]any) error {
	if a.repo == nil {
		return errors.HandleUnavailable("capture_event", "analytics_repository", "not configured")
	}
	if strings.TrimSpace(event) == "" {
		return errors.HandleValidationError("capture_event", "event", event, "event name required")
	}
	if !a.IsEnabled() {
		a.logger.Debug("Analytics disabled, dropping event", "event", event)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	ev := types.AnalyticsEvent{
		ID:         a.newID(),
		Event:      event,
		Properties: properties,
		CapturedAt: a.now(),
	}
	if err := a.repo.EnqueueEvent(ctx, ev); err != nil {
		return errors.WrapErrorWithContext("capture_event", err, map[string]string{"event": event})
	}
	a.logger.Debug("Analytics event queued", "event", event, "id", ev.ID)
	return nil
}

// Prune deletes queued events older than the retention window
func (a *AnalyticsService) Prune(ctx context.Context) (int64, error) {
	if a.repo == nil || a.retention <= 0 {
		return 0, nil
	}
	cutoff := a.now().Add(-a.retention)
	deleted, err := a.repo.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.WrapError("prune_events", err)
	}
	if deleted > 0 {
		a.logger.Info("Pruned analytics events", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

// Pending returns the number of events waiting for upload
func (a *AnalyticsService) Pending(ctx context.Context) (int64, error) {
	if a.repo == nil {
		return 0, nil
	}
	return a.repo.CountPendingEvents(ctx)
}

// Start prunes once and then on every interval until Stop
func (a *AnalyticsService) Start() {
	a.mutex.Lock()
	if a.ticker != nil {
		a.mutex.Unlock()
		return
	}
	ticker := time.NewTicker(a.interval)
	stopCh := make(chan struct{})
	a.ticker = ticker
	a.stopCh = stopCh
	a.mutex.Unlock()

	a.prune()

	go func() {
		for {
			select {
			case <-ticker.C:
				a.prune()
			case <-stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends the prune loop
func (a *AnalyticsService) Stop() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.ticker == nil {
		return
	}
	close(a.stopCh)
	a.ticker = nil
	a.stopCh = nil
}

// SetEnabled turns event capture on or off
func (a *AnalyticsService) SetEnabled(enabled bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether events are being captured
func (a *AnalyticsService) IsEnabled() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.enabled
}

func (a *AnalyticsService) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()
	if _, err := a.Prune(ctx); err != nil {
		logging.LogShellError(a.logger, err, "prune_events", nil)
	}
}
