// Package services implements the business logic layer for datalad-parallel.
//
// Services sit between the command line and HTTP surfaces and the store.
//
// # Service Dependency Graph
//
//	CLI (create, runs) / Handlers (HTTP endpoints)
//	    │
//	    ▼
//	Services Layer
//	    ├── CreateService ──► parallel.ProducerConsumer ──► dataset.Creator
//	    │         └─────────► Store (runs, results)
//	    └── RunService ─────► Store (runs, results)
//
// # CreateService
//
// CreateService turns the engine configuration into a ProducerConsumer run
// over a stream of paths:
//
//	┌──────────────────┬──────────────────────────────────────────────┐
//	│ config.Engine    │ parallel option                              │
//	├──────────────────┼──────────────────────────────────────────────┤
//	│ Jobs             │ WithJobs                                     │
//	│ Lookahead        │ WithLookahead                                │
//	│ Ordered          │ WithAdmission(parallel.Paths())              │
//	│ SkipDependents   │ WithSkipDependents(parallel.IsSubpath)       │
//	│ FailFast         │ WithFailFast                                 │
//	│ Force            │ dataset.WithForce                            │
//	└──────────────────┴──────────────────────────────────────────────┘
//
// Run lifecycle:
//
//	┌─────────┐  all items succeeded  ┌──────┐
//	│ running │ ────────────────────► │ done │
//	└────┬────┘                       └──────┘
//	     │ item failed or producer failed
//	     ▼
//	┌────────┐
//	│ failed │
//	└────────┘
//
// Every result is saved as it is released, numbered by its output position.
// Items that failed are saved after the successful results: with status
// "impossible" when they were never attempted (a failed ancestor, or never
// admissible) and "error" otherwise. Store writes are retried with
// exponential backoff; a run survives a failing store, with a warning.
//
// Usage:
//
//	svc := services.NewCreateService(cfg.Engine, st)
//	run, err := svc.Create(ctx, dataset.Paths(args...), render.Result)
//
// # RunService
//
// RunService reads back recorded runs:
//
//	runs, err := svc.List(ctx, services.RunListParams{Limit: 20})
//	run, err := svc.Get(ctx, id)
//	page, err := svc.Results(ctx, id, services.ResultListParams{Statuses: []string{"error"}})
//
// Get and Results return ResourceNotFoundError for an unknown run.
package services
