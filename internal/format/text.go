package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal
// columns, accounting for wide characters and ignoring ANSI escapes.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripAnsi(s))
}

// TruncateToWidth truncates a string to fit within maxWidth display
// columns, appending "..." when it had to cut. ANSI escapes are
// stripped from truncated output so a cut never lands mid-sequence.
func TruncateToWidth(s string, maxWidth int) string {
	plain := StripAnsi(s)
	if runewidth.StringWidth(plain) <= maxWidth {
		return s
	}
	target := maxWidth - 3
	if target < 0 {
		target = 0
	}

	var b strings.Builder
	width := 0
	for _, r := range plain {
		rw := runewidth.RuneWidth(r)
		if width+rw > target {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + "..."
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, targetWidth int) string {
	width := DisplayWidth(s)
	if width >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-width)
}
