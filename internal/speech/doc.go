// Package speech defines the speech-to-text backend contract and a registry
// of backend factories.
//
// Backends live in subpackages (openai, whisperx) and register themselves
// from init, so binaries select the set of available backends by import.
package speech
