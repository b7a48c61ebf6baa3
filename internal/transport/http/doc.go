// Package http implements the HTTP and websocket surface of brewsignal.
// Handlers stay thin: they decode and validate the request, call the
// evaluation service and render the result or an RFC 7807 problem.
//
// # Routes
//
//	POST /api/entities/evaluate     evaluate one bundle, optional dry-run overrides
//	POST /api/entities/rank         rank many bundles (?format=csv|xlsx for downloads)
//	POST /api/entities/launch-plan  Stage 2 launch plan for one bundle
//	GET  /api/health                liveness and build information
//	GET  /api/policy                the active engine policy
//	GET  /api/ws/what-if            interactive what-if session
//	GET  /metrics                   Prometheus scrape endpoint
package http
