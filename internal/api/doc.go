// Package api hosts the HTTP server, middleware, and REST handlers for running
// crawls on demand. Notable routes:
//   - GET /healthz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/crawls to run a crawl synchronously and return its word counts.
package api
