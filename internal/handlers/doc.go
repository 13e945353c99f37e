// Package handlers implements the HTTP API layer for datalad-parallel.
//
// Handlers expose recorded runs read-only. They delegate to the services
// layer and focus on request validation, response formatting and HTTP
// semantics.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│              api/v1 route wrapper (id and query parsing)        │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Filter validation                                            │
//	│  - Pagination                                                   │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Services Layer (RunService)                │
//	└─────────────────────────────────────────────────────────────────┘
//
// The Handler implements v1.ServerInterface and is mounted with:
//
//	v1.RegisterHandlers(router, handler)
//
// # API Endpoints
//
//	┌────────┬────────────────────┬──────────────────────────────────────────┐
//	│ Method │ Endpoint           │ Description                              │
//	├────────┼────────────────────┼──────────────────────────────────────────┤
//	│ GET    │ /runs              │ List runs (?state=, ?limit=)             │
//	│ GET    │ /runs/{id}         │ Get a run                                │
//	│ GET    │ /runs/{id}/results │ List results (?status=, ?page=,          │
//	│        │                    │ ?pageSize=)                              │
//	└────────┴────────────────────┴──────────────────────────────────────────┘
//
// # Error Mapping
//
//	┌───────────────────────────────┬───────────────────────────────┐
//	│ Condition                     │ Status                        │
//	├───────────────────────────────┼───────────────────────────────┤
//	│ malformed run id or filter    │ 400 Bad Request               │
//	│ ResourceNotFoundError         │ 404 Not Found                 │
//	│ anything else                 │ 500 Internal Server Error     │
//	└───────────────────────────────┴───────────────────────────────┘
//
// Page size defaults to 20 and is capped at 100.
package handlers
