package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	dberrors "sonacove/internal/infrastructure/errors"
	"sonacove/internal/infrastructure/logging"
)

// SQLiteService owns the shell's local SQLite database.
//
// Lifecycle: NewSQLiteService, Connect (which migrates when AutoMigrate is
// set), hand DB() to the repositories, Close on shutdown.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

var _ Service = (*SQLiteService)(nil)

func NewSQLiteService(logger logging.Logger) *SQLiteService {
	return &SQLiteService{logger: logging.Named(logger, "database")}
}

// Connect opens the database, retrying while it is busy or locked
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return dberrors.HandleValidationError("Connect", "config", "nil", "config required")
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}
	s.config = config

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}
	s.configureConnectionPool(db, config)

	retry := dberrors.DefaultRetryConfig()
	err = dberrors.WithRetryContext(ctx, retry, func() error {
		if err := db.PingContext(ctx); err != nil {
			return dberrors.WrapError("Connect", err)
		}
		return nil
	}, "database ping")
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)
	s.logger.Info("Connected to SQLite database", "path", config.Path)

	if config.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}
	s.db = nil
	s.migrationRunner = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate validates and applies the embedded migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}
	if s.migrationRunner == nil {
		return dberrors.HandleValidationError("Migrate", "migrationRunner", "nil", "migration runner not initialized")
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return dberrors.WrapErrorWithContext("Migrate", err, map[string]string{"phase": "validation"})
	}
	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return dberrors.WrapErrorWithContext("Migrate", err, map[string]string{"phase": "execution"})
	}
	return nil
}

// Health pings the database and runs a trivial query
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapErrorWithContext("Health", err, map[string]string{"phase": "ping"})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapErrorWithContext("Health", err, map[string]string{"phase": "query"})
	}
	if result != 1 {
		return dberrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}
	return nil
}

// DB returns the connection for repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetMigrationVersion returns the applied schema version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, dberrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}
	if s.migrationRunner == nil {
		return 0, dberrors.HandleValidationError("GetMigrationVersion", "migrationRunner", "nil", "migration runner not initialized")
	}

	version, err := s.migrationRunner.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapError("GetMigrationVersion", err)
	}
	return version, nil
}

// configureConnectionPool keeps SQLite to one connection unless WAL allows a few readers
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode", "journalMode", config.JournalMode)
	} else {
		maxConns := config.MaxConnections
		if maxConns <= 0 || maxConns > 4 {
			maxConns = 4
		}
		idleConns := min(config.MaxIdleConns, maxConns)
		if idleConns <= 0 {
			idleConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured SQLite for limited connection pool (WAL mode)",
			"maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	// an in-memory database dies with its connection
	if config.IsInMemory() {
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}
