// Package server provides the HTTP server for datalad-parallel.
//
// The server uses the Gin web framework and exposes the run API read-only.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Ginzap (request logging, "http" logger)                │  │
//	│  │  RecoveryWithZap (panic recovery with stack trace)      │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Router (/api/v1)                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Handlers (registered via callback)                     │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  NoRoute → 404 JSON error                                     │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// Development Mode (ServerMode = "dev"): Gin runs in debug mode.
//
// Production Mode (ServerMode = "prod"): Gin runs in release mode.
//
// # Server Lifecycle
//
// Creation:
//
//	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    v1.RegisterHandlers(router, handler)
//	})
//
// Starting:
//
//	// Blocks until ctx is done or Stop is called
//	err := srv.Start(ctx)
//
// Stopping:
//
//	srv.Stop(ctx)
//
// Performs graceful shutdown, waiting for in-flight requests to complete.
// Cancelling the context given to Start does the same.
package server
