package repository

import (
	"context"
	"database/sql"

	"sonacove/internal/database"
	repoerrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements Repository on the shell's SQLite database
type SQLiteRepository struct {
	db          *sql.DB
	q           queryer
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithConfig(dbService, nil, logger)
}

// NewSQLiteRepositoryWithConfig uses retryConfig for busy or locked databases
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	if retryConfig == nil {
		retryConfig = repoerrors.DefaultRetryConfig()
	}
	db := dbService.DB()
	return &SQLiteRepository{
		db:          db,
		q:           db,
		retryConfig: retryConfig,
		logger:      logging.Named(logger, "repository"),
	}
}

// wrap classifies err and attaches the operation context
func (r *SQLiteRepository) wrap(op string, err error, context map[string]string) error {
	if err == nil {
		return nil
	}
	return repoerrors.WrapErrorWithContext(op, err, context)
}
