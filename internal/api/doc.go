// Package api defines the wire-format types of the daemon HTTP API and a
// small client for it.
//
// # Endpoints
//
//	POST /api/forms   submit a form (SubmitRequest -> SubmitResponse)
//	POST /api/sync    run one replay pass (SyncResponse)
//	GET  /api/queue   list queued entries (QueueListResponse)
//	GET  /api/status  daemon runtime state (DaemonStatus)
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors are returned as {"error": "..."} with a non-2xx status.
package api
