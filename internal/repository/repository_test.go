package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"sonacove/internal/database"
	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/testutils"
	"sonacove/internal/types"
)

func setupTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbService := database.NewSQLiteService(&testutils.RecordingLogger{})
	if err := dbService.Connect(context.Background(), database.TestConfig()); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { dbService.Close() })
	return NewSQLiteRepository(dbService, &testutils.RecordingLogger{})
}

func TestNewSQLiteRepository(t *testing.T) {
	repo := setupTestRepository(t)
	if repo.db == nil || repo.q == nil || repo.logger == nil || repo.retryConfig == nil {
		t.Fatalf("repository not fully initialised: %+v", repo)
	}
}

func TestWithTransaction_CommitsAndRollsBack(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000)

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		return tx.EnqueueEvent(ctx, types.AnalyticsEvent{ID: "a", Event: "app_opened", CapturedAt: at})
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	sentinel := stderrors.New("abort")
	err = repo.WithTransaction(ctx, func(tx Repository) error {
		if err := tx.EnqueueEvent(ctx, types.AnalyticsEvent{ID: "b", Event: "app_closed", CapturedAt: at}); err != nil {
			return err
		}
		return sentinel
	})
	if !stderrors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	count, err := repo.CountPendingEvents(ctx)
	if err != nil || count != 1 {
		t.Errorf("CountPendingEvents() = %d, %v; want 1 (rolled back insert must vanish)", count, err)
	}
}

func TestWithTransaction_DoesNotRetryValidation(t *testing.T) {
	repo := setupTestRepository(t)
	calls := 0
	err := repo.WithTransaction(context.Background(), func(tx Repository) error {
		calls++
		return repoerrors.HandleValidationError("test", "field", "", "bad")
	})
	if !repoerrors.IsValidation(err) || calls != 1 {
		t.Errorf("calls=%d err=%v", calls, err)
	}
}
