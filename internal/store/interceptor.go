package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// QueryInterceptor is the subset of *sql.DB the repositories use.
type QueryInterceptor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loggingInterceptor logs every statement at debug level.
type loggingInterceptor struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewQueryInterceptor(db *sql.DB) QueryInterceptor {
	return &loggingInterceptor{db: db, log: zap.S().Named("store")}
}

func (i *loggingInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := i.db.ExecContext(ctx, query, args...)
	i.trace(query, args, start, err)
	return res, err
}

func (i *loggingInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := i.db.QueryContext(ctx, query, args...)
	i.trace(query, args, start, err)
	return rows, err
}

func (i *loggingInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := i.db.QueryRowContext(ctx, query, args...)
	i.trace(query, args, start, row.Err())
	return row
}

func (i *loggingInterceptor) trace(query string, args []any, start time.Time, err error) {
	if err != nil {
		i.log.Debugw("query failed", "query", query, "args", args, "duration", time.Since(start), "error", err)
		return
	}
	i.log.Debugw("query", "query", query, "args", args, "duration", time.Since(start))
}
