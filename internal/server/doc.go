// Package server exposes the transcription pipeline and job ledger over HTTP.
//
// Routes:
//
//	POST /reports/transcribe   multipart upload (field "file")
//	GET  /reports/jobs         recent jobs, filter with ?status= and ?limit=
//	GET  /reports/jobs/{id}    one job
//	GET  /health               liveness plus dependency checks
//
// Errors are JSON objects {"error": ..., "kind": ...}. Validation and decode
// failures map to 400, an empty transcript with require_text to 422, and
// configuration problems to 503.
package server
