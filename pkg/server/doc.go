// Package server exposes the layout engine over HTTP.
//
// Routes live under an optional global prefix:
//
//	GET    /healthz                          liveness, no auth
//	GET    /metrics                          Prometheus, no auth
//	GET    /api/v1/datasets                  configured dataset names
//	GET    /api/v1/datasets/{name}/tree      raw tree document
//	POST   /api/v1/layout                    layout of a posted tree or dataset
//	POST   /api/v1/sessions                  new session on a dataset
//	GET    /api/v1/sessions/{id}             session state
//	DELETE /api/v1/sessions/{id}             drop a session
//	POST   /api/v1/sessions/{id}/toggle      expand or collapse one path
//	POST   /api/v1/sessions/{id}/expand-all  expand everything or restore
//	GET    /api/v1/sessions/{id}/layout      layout for the session state
//
// Every /api route requires the configured key in the X-API-Key header.
// With no key configured all API requests are rejected. Errors are JSON
// objects with "error" and "message" fields.
package server
