package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sonacove/internal/infrastructure/errors"
	"sonacove/internal/testutils"
	"sonacove/internal/types"
)

func newTestAnalytics(repo *MockRepository, retentionDays int) (*AnalyticsService, *time.Time) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := NewAnalyticsService(repo, retentionDays, &testutils.RecordingLogger{})
	svc.now = func() time.Time { return now }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, &now
}

func TestAnalyticsService_Capture(t *testing.T) {
	repo := NewMockRepository()
	svc, now := newTestAnalytics(repo, 30)

	props := map[string]any{"room": "standup"}
	if err := svc.Capture("meeting_joined", props); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	props["room"] = "mutated"

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 queued event, got %d", len(events))
	}
	ev := events[0]
	if ev.ID != "id-1" || ev.Event != "meeting_joined" || !ev.CapturedAt.Equal(*now) {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Properties["room"] != "standup" {
		t.Errorf("properties should be copied at capture time, got %v", ev.Properties)
	}
}

func TestAnalyticsService_CaptureErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*MockRepository)
		event  string
		check  func(error) bool
		queued int
	}{
		{"empty name", nil, "", errors.IsValidation, 0},
		{"blank name", nil, "  ", errors.IsValidation, 0},
		{"repository down", func(m *MockRepository) { m.SetFailureModes(true, false, false, false) }, "app_opened", errors.IsConnection, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			if tt.setup != nil {
				tt.setup(repo)
			}
			svc, _ := newTestAnalytics(repo, 30)

			err := svc.Capture(tt.event, nil)
			if !tt.check(err) {
				t.Errorf("Capture() error = %v", err)
			}
			if got := len(repo.Events()); got != tt.queued {
				t.Errorf("queued %d events, want %d", got, tt.queued)
			}
		})
	}
}

func TestAnalyticsService_NilRepository(t *testing.T) {
	svc := NewAnalyticsService(nil, 30, nil)
	if err := svc.Capture("x", nil); !errors.IsUnavailable(err) {
		t.Errorf("Capture() = %v, want unavailable", err)
	}
	if n, err := svc.Prune(context.Background()); n != 0 || err != nil {
		t.Errorf("Prune() = %d, %v", n, err)
	}
}

func TestAnalyticsService_Disabled(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestAnalytics(repo, 30)
	svc.SetEnabled(false)

	if err := svc.Capture("app_opened", nil); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if enqueue, _, _, _, _ := repo.GetCallCounts(); enqueue != 0 {
		t.Errorf("disabled service reached the repository %d times", enqueue)
	}
	if svc.IsEnabled() {
		t.Error("IsEnabled() should be false")
	}
}

func TestAnalyticsService_Prune(t *testing.T) {
	repo := NewMockRepository()
	svc, now := newTestAnalytics(repo, 7)
	ctx := context.Background()

	for i, age := range []time.Duration{time.Hour, 6 * 24 * time.Hour, 8 * 24 * time.Hour, 30 * 24 * time.Hour} {
		ev := types.AnalyticsEvent{ID: fmt.Sprintf("e%d", i), Event: "x", CapturedAt: now.Add(-age)}
		if err := repo.EnqueueEvent(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := svc.Prune(ctx)
	if err != nil || deleted != 2 {
		t.Fatalf("Prune() = %d, %v; want 2", deleted, err)
	}
	if pending, _ := svc.Pending(ctx); pending != 2 {
		t.Errorf("Pending() = %d, want 2", pending)
	}
}

func TestAnalyticsService_PruneDisabledByRetention(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestAnalytics(repo, 0)
	if _, err := svc.Prune(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, _, _, del, _ := repo.GetCallCounts(); del != 0 {
		t.Errorf("retention 0 should not delete, got %d calls", del)
	}
}

func TestAnalyticsService_StartStop(t *testing.T) {
	repo := NewMockRepository()
	repo.SetFailureModes(false, false, true, false)
	logger := &testutils.RecordingLogger{}
	svc := NewAnalyticsService(repo, 7, logger)
	svc.interval = time.Hour

	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()

	if _, _, _, del, _ := repo.GetCallCounts(); del != 1 {
		t.Errorf("expected one prune on start, got %d", del)
	}
	if len(logger.Calls("ERROR")) != 1 {
		t.Errorf("prune failure should be logged once, got %+v", logger.All())
	}
}
