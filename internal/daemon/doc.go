// Package daemon coordinates the long-running scribe process.
//
// It owns the single-instance lock, recovers jobs a previous process left
// running, logs preflight results, and starts the HTTP server. Request
// handling lives in the server package; the daemon only covers startup,
// shutdown and status.
package daemon
