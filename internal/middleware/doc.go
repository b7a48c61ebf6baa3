// Package middleware holds the HTTP middleware chain for the brewsignal API:
// request ids, structured request logging, rate limiting, request body
// validation and OpenTelemetry instrumentation.
package middleware
