// Package sqlite carries database transactions through context so that
// repositories join whatever unit of work the service opened.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/timesheet-approval/internal/application/port"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type txKey struct{}

// busyRetries bounds how often a unit of work is restarted when another
// connection holds the write lock past the driver's busy timeout.
const busyRetries = 3

// DB runs units of work against one SQLite handle
type DB struct {
	sqlDB   *sql.DB
	logger  *zap.Logger
	backoff time.Duration
}

// NewDB creates the transaction manager
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		sqlDB:   sqlDB,
		logger:  logger,
		backoff: 50 * time.Millisecond,
	}
}

// WithTransaction runs fn inside a transaction carried by the context.
// Nested calls join the outer transaction. A unit of work that fails with
// SQLITE_BUSY or SQLITE_LOCKED before commit is rolled back and retried.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		if attempt > 0 {
			db.logger.Warn("Database busy, retrying unit of work", zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * db.backoff):
			}
		}
		err = db.run(ctx, fn)
		if !isBusy(err) {
			return err
		}
	}
	return err
}

func (db *DB) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFor returns the transaction carried by ctx, or db when there is none
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

var _ port.TransactionManager = (*DB)(nil)
