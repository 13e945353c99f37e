package store

import (
	"context"
	"database/sql"

	"github.com/ypid/datalad/internal/store/migrations"
)

// Store provides access to all storage repositories.
type Store struct {
	db      *sql.DB
	runs    *RunStore
	results *ResultStore
}

func NewStore(db *sql.DB) *Store {
	qi := NewQueryInterceptor(db)
	return &Store{
		db:      db,
		runs:    NewRunStore(qi),
		results: NewResultStore(qi),
	}
}

// Migrate brings the schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.db)
}

func (s *Store) Runs() *RunStore {
	return s.runs
}

func (s *Store) Results() *ResultStore {
	return s.results
}

func (s *Store) Close() error {
	return s.db.Close()
}
