// Package voice wraps transcription and synthesis for phone turns, plus the
// guards that keep silence-induced transcription artifacts out of the
// conversation.
package voice

import (
	"regexp"
	"strings"
)

// exactDenylist holds stock phrases the transcription model emits verbatim
// on silence or background noise.
var exactDenylist = map[string]struct{}{
	"thank you":              {},
	"thank you.":             {},
	"thanks for watching":    {},
	"thanks for watching!":   {},
	"subscribe":              {},
	"like and subscribe":     {},
	"thank you for watching": {},
	"you":                    {},
	"bye":                    {},
	"bye.":                   {},
	"...":                    {},
	".":                      {},
}

// substringDenylist catches longer video-caption boilerplate that varies at
// the edges.
var substringDenylist = []string{
	"thanks for watching",
	"thank you for watching",
	"like and subscribe",
	"please subscribe",
	"subtitles by",
	"amara.org",
}

var (
	punctuationOnly = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)
	// alphabetEcho matches letter-by-letter artifacts like "A. B. C." or
	// "a b c d e".
	alphabetEcho = regexp.MustCompile(`^([a-z][\s.,-]+){2,}[a-z]?[\s.,!?]*$`)
)

// IsHallucination reports whether a transcription is a known noise artifact
// rather than caller speech. Empty results are treated as artifacts too.
func IsHallucination(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return true
	}
	if _, ok := exactDenylist[normalized]; ok {
		return true
	}
	if len([]rune(normalized)) <= 3 {
		return true
	}
	for _, phrase := range substringDenylist {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	if punctuationOnly.MatchString(normalized) {
		return true
	}
	if alphabetEcho.MatchString(normalized) {
		return true
	}
	return false
}
