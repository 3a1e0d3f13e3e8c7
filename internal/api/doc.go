// Package api serves the read-only HTTP view of the track library.
//
// Routes:
//
//	GET /health                         {"status":"ok"} or 503 {"status":"degraded","error":...}
//	GET /api/stats                      {"tracks":N,"transitions":M}
//	GET /api/transitions/recent?limit=N newest transitions first
//
// The recent feed orders by transition id descending, which is insertion
// order reversed. limit defaults to api.recent_default and is clamped to
// [1, api.recent_max]. There is no authentication; bind to a loopback
// address unless the network is trusted.
package api
