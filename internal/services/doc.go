// Package services defines shared utilities consumed by the transcription
// pipeline, the speech backends, and the HTTP/CLI surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     consistent classification (decode, configuration, backend, empty
//     transcript, validation) from the pipeline up to HTTP status codes and
//     persisted job records.
//
// Wrap new failures with one of the markers so callers can branch with
// errors.Is instead of matching on message text.
package services
