// Package transcription is the core pipeline: it dispatches planned chunks to a
// speech backend, reassembles the results on the recording timeline, and
// exposes Transcriber as the single entry point.
//
// Chunk failures never fail a request. They surface as visible
// "[ERROR chunk <k>: ...]" segments so the caller can see which time range is
// missing, and Report counts them.
package transcription
