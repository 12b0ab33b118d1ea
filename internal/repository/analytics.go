package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/types"
)

const maxPendingBatch = 500

// EnqueueEvent stores an event for later upload
func (r *SQLiteRepository) EnqueueEvent(ctx context.Context, event types.AnalyticsEvent) error {
	if event.ID == "" {
		return repoerrors.HandleValidationError("EnqueueEvent", "id", "", "event id required")
	}
	if strings.TrimSpace(event.Event) == "" {
		return repoerrors.HandleValidationError("EnqueueEvent", "event", event.Event, "event name required")
	}

	props := event.Properties
	if props == nil {
		props = map[string]any{}
	}
	encoded, err := json.Marshal(props)
	if err != nil {
		return repoerrors.HandleValidationError("EnqueueEvent", "properties", event.Event, err.Error())
	}

	captured := event.CapturedAt
	if captured.IsZero() {
		captured = time.Now()
	}

	return repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO analytics_events (id, event, properties, captured_at) VALUES (?, ?, ?, ?)`,
			event.ID, event.Event, string(encoded), captured.UnixMilli(),
		)
		return r.wrap("EnqueueEvent", err, map[string]string{"event": event.Event})
	})
}

// GetPendingEvents returns up to limit unsent events, oldest first
func (r *SQLiteRepository) GetPendingEvents(ctx context.Context, limit int) ([]types.AnalyticsEvent, error) {
	if limit <= 0 || limit > maxPendingBatch {
		limit = maxPendingBatch
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT id, event, properties, captured_at FROM analytics_events
		 WHERE sent_at IS NULL ORDER BY captured_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, r.wrap("GetPendingEvents", err, nil)
	}
	defer rows.Close()

	var events []types.AnalyticsEvent
	for rows.Next() {
		var (
			ev         types.AnalyticsEvent
			props      string
			capturedMs int64
		)
		if err := rows.Scan(&ev.ID, &ev.Event, &props, &capturedMs); err != nil {
			return nil, r.wrap("GetPendingEvents", err, nil)
		}
		if err := json.Unmarshal([]byte(props), &ev.Properties); err != nil {
			r.logger.Warn("Dropping unreadable analytics properties", "id", ev.ID, "error", err)
			ev.Properties = map[string]any{}
		}
		ev.CapturedAt = time.UnixMilli(capturedMs)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("GetPendingEvents", err, nil)
	}
	return events, nil
}

// MarkEventsSent records that ids were uploaded
func (r *SQLiteRepository) MarkEventsSent(ctx context.Context, ids []string, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, sentAt.UnixMilli())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.q.ExecContext(ctx,
		fmt.Sprintf(`UPDATE analytics_events SET sent_at = ? WHERE id IN (%s)`, placeholders), args...)
	return r.wrap("MarkEventsSent", err, map[string]string{"count": fmt.Sprintf("%d", len(ids))})
}

// CountPendingEvents returns the number of unsent events
func (r *SQLiteRepository) CountPendingEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics_events WHERE sent_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, r.wrap("CountPendingEvents", err, nil)
	}
	return count, nil
}

// DeleteEventsBefore removes events captured before the cutoff, sent or not
func (r *SQLiteRepository) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM analytics_events WHERE captured_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, r.wrap("DeleteEventsBefore", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.wrap("DeleteEventsBefore", err, nil)
	}
	return n, nil
}
