package schedule

import (
	"strings"
	"time"
)

// Compact schedule codes encode which weekdays an offering meets.
// Grammar: a run of day tokens {M, T, W, R, F, S, U}, with two-letter "TH"
// lexed before the single letters. Repeated letters are collapsed before
// lexing, so "TTHS" normalizes to "THS".
//
// Only the canonical patterns map to bookable days; anything else means the
// offering has no bookable weekdays. Unparseable input is never treated as
// a default.

var dayTokens = map[byte]bool{
	'M': true, 'T': true, 'W': true, 'R': true,
	'F': true, 'S': true, 'U': true, 'H': true,
}

// DeriveAllowedDays parses a compact schedule code into the set of weekdays
// on which mentoring sessions may be booked:
//
//	"MWF"          -> {Wednesday, Friday}
//	"THS", "TTHS"  -> {Thursday, Saturday}
//	anything else  -> empty set
func DeriveAllowedDays(code string) []time.Weekday {
	norm := collapseRepeats(strings.ToUpper(strings.TrimSpace(code)))

	tokens, ok := lexDayTokens(norm)
	if !ok {
		return nil
	}

	switch strings.Join(tokens, "") {
	case "MWF":
		return []time.Weekday{time.Wednesday, time.Friday}
	case "THS":
		return []time.Weekday{time.Thursday, time.Saturday}
	}
	return nil
}

// collapseRepeats removes duplicate letters, keeping first occurrences
func collapseRepeats(s string) string {
	var b strings.Builder
	seen := make(map[byte]bool, len(s))
	for i := 0; i < len(s); i++ {
		if !seen[s[i]] {
			seen[s[i]] = true
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// lexDayTokens scans left to right, recognizing "TH" before single letters.
// Returns ok=false on any character outside the day-token alphabet.
func lexDayTokens(s string) ([]string, bool) {
	var tokens []string
	for i := 0; i < len(s); {
		if i+1 < len(s) && s[i] == 'T' && s[i+1] == 'H' {
			tokens = append(tokens, "TH")
			i += 2
			continue
		}
		if !dayTokens[s[i]] {
			return nil, false
		}
		tokens = append(tokens, string(s[i]))
		i++
	}
	return tokens, true
}
