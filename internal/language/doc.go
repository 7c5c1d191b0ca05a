// Package language normalizes language hints and backend-detected languages.
//
// Hints arrive from callers as BCP 47 tags ("en-US"), ISO 639 codes, or the
// literal "auto". Backends report either codes or English names ("english").
// Everything is folded to ISO 639-1 so transcripts carry a single form.
package language
