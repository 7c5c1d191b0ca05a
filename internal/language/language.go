package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"scribe/internal/services"
)

// Unknown is reported when neither the backend nor the caller supplied a language.
const Unknown = "unknown"

// speechCodes lists the ISO 639-1 codes speech models commonly detect. Their
// English display names double as the word forms Whisper reports in
// verbose_json responses ("english", "german", ...).
var speechCodes = []string{
	"af", "am", "ar", "as", "az", "ba", "be", "bg", "bn", "bo", "br", "bs",
	"ca", "cs", "cy", "da", "de", "el", "en", "es", "et", "eu", "fa", "fi",
	"fo", "fr", "gl", "gu", "ha", "he", "hi", "hr", "ht", "hu", "hy", "id",
	"is", "it", "ja", "jw", "ka", "kk", "km", "kn", "ko", "la", "lb", "ln",
	"lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my",
	"ne", "nl", "nn", "no", "oc", "pa", "pl", "ps", "pt", "ro", "ru", "sa",
	"sd", "si", "sk", "sl", "sn", "so", "sq", "sr", "su", "sv", "sw", "ta",
	"te", "tg", "th", "tk", "tl", "tr", "tt", "uk", "ur", "uz", "vi", "yi",
	"yo", "zh",
}

// bibliographic maps ISO 639-2/B codes that language.Parse does not accept.
var bibliographic = map[string]string{
	"fre": "fr",
	"ger": "de",
	"chi": "zh",
	"dut": "nl",
	"cze": "cs",
	"gre": "el",
	"per": "fa",
	"rum": "ro",
	"slo": "sk",
	"alb": "sq",
	"arm": "hy",
	"geo": "ka",
	"ice": "is",
	"mac": "mk",
	"may": "ms",
	"wel": "cy",
	"baq": "eu",
	"bur": "my",
	"tib": "bo",
}

var byWord map[string]string

func init() {
	names := display.English.Languages()
	byWord = make(map[string]string, len(speechCodes)+4)
	for _, code := range speechCodes {
		name := names.Name(language.Make(code))
		if name == "" {
			continue
		}
		byWord[strings.ToLower(name)] = code
	}
	// Whisper's own spellings that differ from CLDR names.
	byWord["javanese"] = "jw"
	byWord["castilian"] = "es"
	byWord["flemish"] = "nl"
	byWord["mandarin"] = "zh"
}

// ToISO2 converts a language tag, ISO 639 code, or English language name to
// ISO 639-1. Returns "" for unrecognized input.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := byWord[code]; ok {
		return mapped
	}
	if mapped, ok := bibliographic[code]; ok {
		return mapped
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, Unknown) {
		return "Unknown"
	}
	if iso2 := ToISO2(trimmed); iso2 != "" {
		if name := display.English.Languages().Name(language.Make(iso2)); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// ParseHint validates a caller-supplied language hint. Empty input and "auto"
// request auto-detection and yield "". Anything else must resolve to an
// ISO 639-1 code.
func ParseHint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return "", nil
	}
	if iso2 := ToISO2(trimmed); iso2 != "" {
		return iso2, nil
	}
	return "", services.Wrap(services.ErrValidation, "language", "parse hint", fmt.Sprintf("unrecognized language %q", trimmed), nil)
}

// NormalizeDetected maps a backend-reported language (code or English name) to
// ISO 639-1. Unrecognized non-empty values are returned lowercased so the
// information is not lost.
func NormalizeDetected(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if iso2 := ToISO2(trimmed); iso2 != "" {
		return iso2
	}
	return strings.ToLower(trimmed)
}
