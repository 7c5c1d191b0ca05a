// Package whisperx runs WhisperX locally via uvx as a speech backend.
//
// Each chunk gets its own scratch directory, so concurrent calls never share
// files. WhisperX is asked for JSON output only; segment timings and the
// detected language come from that file.
package whisperx
