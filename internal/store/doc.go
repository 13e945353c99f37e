// Package store implements the data access layer for parallel runs.
//
// This package persists runs and their results in DuckDB so they can be
// listed, inspected and exported after the command that produced them has
// exited.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├─────────────────────────────────────────────────────────────────┤
//	│            RunStore            │          ResultStore           │
//	│               ▼                │               ▼                │
//	│             runs               │            results             │
//	├────────────────────────────────┴────────────────────────────────┤
//	│                QueryInterceptor (debug logging)                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Tables
//
// Created by migrations (internal/store/migrations/sql/):
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  runs              │  One row per run: jobs, state, counters     │
//	│  results           │  Every result of a run, keyed (run_id, seq) │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// # Initialization Flow
//
//	db, _ := NewDB(path)       // ":memory:" for an in-memory database
//	s := NewStore(db)
//	s.Migrate(ctx)             // migrations.Run
//
// # RunStore
//
// Methods:
//
//   - Create(ctx, run) → error
//   - Finish(ctx, run) → error (ResourceNotFoundError for unknown runs)
//   - Get(ctx, id) → *models.Run (ResourceNotFoundError for unknown runs)
//   - List(ctx, opts...) → []models.Run, most recent first
//
// # ResultStore
//
// Methods:
//
//   - Save(ctx, result) → error
//   - List(ctx, opts...) → []models.RunResult, ordered by (run_id, seq)
//   - Count(ctx, opts...) → int
//
// # List Options
//
// List and Count use the functional options pattern. Each ListOption
// modifies the squirrel select builder:
//
//	results, err := store.Results().List(ctx,
//	    store.ByRun(id.String()),
//	    store.ByStatus("error", "impossible"),
//	    store.WithLimit(50),
//	    store.WithOffset(0),
//	)
//
//   - ByRun(runID)          WHERE run_id = ?
//   - ByStatus(statuses...) WHERE status IN (...)
//   - ByState(states...)    WHERE state IN (...), for runs
//   - WithLimit(n), WithOffset(n)
package store
