package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// WithTransaction runs fn against a repository bound to one transaction,
// retrying the whole transaction while the database is busy
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			shellErr := repoerrors.NewShellError("WithTransaction.Begin", err, repoerrors.ClassifyError(err))
			if shellErr.IsRetryable() {
				r.logger.Debug("Retryable error beginning transaction", "error", err)
			} else {
				logging.LogShellError(r.logger, shellErr, "WithTransaction.Begin", nil)
			}
			return shellErr
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction", "rollback_error", rollbackErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			q:           tx,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}
		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			shellErr := repoerrors.NewShellError("WithTransaction.Commit", err, repoerrors.ClassifyError(err))
			if !shellErr.IsRetryable() {
				logging.LogShellError(r.logger, shellErr, "WithTransaction.Commit", nil)
			}
			return shellErr
		}
		committed = true
		return nil
	})

	if err == nil {
		r.logger.Debug("Transaction committed", "duration_ms", time.Since(start).Milliseconds())
	}
	return err
}
