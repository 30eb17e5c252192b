package sequence

import (
	"fmt"
	"strings"
)

// maxPadding keeps the width within what an int64 can fill.
const maxPadding = 19

// Format renders prefix followed by sequence zero-padded to padding digits.
// A sequence wider than padding is rendered in full. Negative input panics
// with *FormatError.
func Format(prefix string, sequence int64, padding int) string {
	if padding < 0 || padding > maxPadding || sequence < 0 {
		panic(&FormatError{Prefix: prefix, Sequence: sequence, Padding: padding})
	}
	return fmt.Sprintf("%s%0*d", prefix, padding, sequence)
}

// Initials derives an uppercase abbreviation from a free-text name.
// Only ASCII letters survive; a single word yields its first three letters,
// several words yield the first letter of each (at most five). An empty
// result falls back to "XXX".
func Initials(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case r == ' ', r == '\t', r == '\n', r == '\r':
			return ' '
		}
		return -1
	}, name)

	words := strings.Fields(strings.ToUpper(cleaned))
	switch len(words) {
	case 0:
		return "XXX"
	case 1:
		w := words[0]
		if len(w) > 3 {
			w = w[:3]
		}
		return w
	}

	var b strings.Builder
	for _, w := range words {
		if b.Len() == 5 {
			break
		}
		b.WriteByte(w[0])
	}
	return b.String()
}
