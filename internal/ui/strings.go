package ui

import (
	"path/filepath"
	"strings"
)

const ellipsis = "…"

// truncate cuts value to limit runes, ending in "..." when it had to cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	switch {
	case limit <= 0 || len(runes) <= limit:
		return value
	case limit <= 3:
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle elides the middle of value so both ends stay readable. A
// short extension such as ".gcode" is kept intact, so printer file names and
// local paths still show what kind of file they are.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}

	ext := []rune(filepath.Ext(value))
	if n := len(ext); n > 1 && n < 10 && n < limit/2 {
		base := runes[:len(runes)-n]
		return elide(base, limit-n) + string(ext)
	}
	return elide(runes, limit)
}

// elide keeps the head and tail of runes around a single ellipsis rune.
func elide(runes []rune, limit int) string {
	keep := limit - 1
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}

// padRight pads s with spaces to width runes. Longer strings are returned
// unchanged.
func padRight(s string, width int) string {
	if gap := width - len([]rune(s)); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
