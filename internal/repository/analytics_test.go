package repository

import (
	"context"
	"testing"
	"time"

	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/types"
)

func TestEnqueueEvent_Validation(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		event types.AnalyticsEvent
	}{
		{"missing id", types.AnalyticsEvent{Event: "x"}},
		{"missing name", types.AnalyticsEvent{ID: "1"}},
		{"blank name", types.AnalyticsEvent{ID: "1", Event: "   "}},
		{"unencodable properties", types.AnalyticsEvent{ID: "1", Event: "x", Properties: map[string]any{"ch": make(chan int)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.EnqueueEvent(ctx, tt.event); !repoerrors.IsValidation(err) {
				t.Errorf("EnqueueEvent() = %v, want validation error", err)
			}
		})
	}
}

func TestEnqueueEvent_DuplicateIDIsConstraint(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	ev := types.AnalyticsEvent{ID: "dup", Event: "x", CapturedAt: time.UnixMilli(1)}

	if err := repo.EnqueueEvent(ctx, ev); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.EnqueueEvent(ctx, ev)
	if err == nil {
		t.Fatal("duplicate id accepted")
	}
	if repoerrors.IsRetryable(err) {
		t.Errorf("constraint violation should not be retryable: %v", err)
	}
}

func TestPendingEventsLifecycle(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	events := []types.AnalyticsEvent{
		{ID: "e2", Event: "meeting_joined", Properties: map[string]any{"room": "r1"}, CapturedAt: base.Add(2 * time.Second)},
		{ID: "e1", Event: "app_opened", CapturedAt: base.Add(time.Second)},
		{ID: "e3", Event: "meeting_left", CapturedAt: base.Add(3 * time.Second)},
	}
	for _, ev := range events {
		if err := repo.EnqueueEvent(ctx, ev); err != nil {
			t.Fatalf("EnqueueEvent(%s): %v", ev.ID, err)
		}
	}

	pending, err := repo.GetPendingEvents(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingEvents() error = %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "e1" || pending[1].ID != "e2" || pending[2].ID != "e3" {
		t.Fatalf("pending order = %+v", pending)
	}
	if pending[1].Properties["room"] != "r1" {
		t.Errorf("properties not round-tripped: %v", pending[1].Properties)
	}
	if pending[0].Properties == nil {
		t.Error("nil properties should be stored as an empty object")
	}
	if !pending[0].CapturedAt.Equal(base.Add(time.Second)) || !pending[0].IsPending() {
		t.Errorf("unexpected event %+v", pending[0])
	}

	if err := repo.MarkEventsSent(ctx, []string{"e1", "e2"}, base.Add(time.Minute)); err != nil {
		t.Fatalf("MarkEventsSent() error = %v", err)
	}
	if count, _ := repo.CountPendingEvents(ctx); count != 1 {
		t.Errorf("pending after upload = %d, want 1", count)
	}
	if err := repo.MarkEventsSent(ctx, nil, base); err != nil {
		t.Errorf("MarkEventsSent(nil) = %v", err)
	}

	limited, err := repo.GetPendingEvents(ctx, 0)
	if err != nil || len(limited) != 1 || limited[0].ID != "e3" {
		t.Errorf("GetPendingEvents(0) = %+v, %v", limited, err)
	}

	deleted, err := repo.DeleteEventsBefore(ctx, base.Add(2500*time.Millisecond))
	if err != nil || deleted != 2 {
		t.Errorf("DeleteEventsBefore() = %d, %v; want 2", deleted, err)
	}
}
