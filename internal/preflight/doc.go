// Package preflight provides readiness checks for the directories, binaries
// and speech endpoint scribe depends on.
//
// The serve command runs them once at startup and logs failures; the status
// command and GET /health render the same results.
package preflight
