// Package logtail reads the tail of printdeck's own log file for the in-app
// log view.
//
// # Reading Log Files
//
// Read uses a ring buffer to keep only the last maxLines of a file in a
// single pass, so memory stays O(maxLines) however large the file grows.
// A missing file yields no lines and no error; the log may simply not have
// been written yet.
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//
// # Parsing
//
// The TUI logs through zerolog's console writer with colors disabled, which
// produces lines of the form
//
//	15:04:05 INF feed connected component=feed
//
// Parse splits such a line into time, level, component and message so the
// UI can style each column. Lines in any other shape are returned whole as
// the message.
package logtail
