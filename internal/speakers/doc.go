// Package speakers attaches speaker labels to transcript segments.
//
// LabelAlternating is a gap heuristic: a pause of at least the threshold
// between consecutive segments hands the floor to the next speaker in a fixed
// rotation. AssignByOverlap maps segments onto turns produced by an external
// diarization model.
package speakers
