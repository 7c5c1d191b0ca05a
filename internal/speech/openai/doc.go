// Package openai implements the speech backend on top of any OpenAI-compatible
// audio transcriptions endpoint.
//
// Whisper models are asked for verbose_json so responses carry segment
// timings; other models return plain text, which the dispatcher turns into a
// single chunk-wide segment.
package openai
