package ui

import "time"

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines to keep in memory.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// LogRefreshInterval is the minimum time between log reloads while following.
	LogRefreshInterval = 500 * time.Millisecond

	// DefaultUIInterval is the refresh interval used when no scheduler interval is set.
	DefaultUIInterval = 100 * time.Millisecond
)
