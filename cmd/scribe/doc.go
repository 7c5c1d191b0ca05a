// Command scribe transcribes meeting recordings.
//
// "scribe serve" runs the HTTP API; "scribe transcribe" runs the same pipeline
// on a local file. The remaining commands inspect the job ledger, label saved
// transcripts, and manage configuration.
package main
