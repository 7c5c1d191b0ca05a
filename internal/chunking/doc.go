// Package chunking plans backend uploads for a normalized recording.
//
// A leaf's offset is its window start plus the durations of the leaves before
// it in the same window, which is the same as its first sample index divided by
// the sample rate.
package chunking
