// Package app provides the orchestration layer for printdeck.
//
// # Overview
//
// This package wires together configuration, logging, the device client, the
// shared state store and the components that write into it. It is the
// composition root for both entry points: the terminal UI (Run) and the
// one-shot commands in package cli (NewEngine).
//
// # Startup
//
//  1. Load ~/.config/printdeck/config.toml and apply flag overrides
//  2. Open the rotating log file (the UI owns the terminal)
//  3. Build the Engine: device client, store, gateway, upload tracker,
//     feed manager and render scheduler
//  4. Start the WebSocket feed and, if status_poll is set, the fallback poller
//  5. Request the file listing
//  6. Run the Bubble Tea program until the user quits
//
// # Data Flow
//
//	┌────────────┐  frames   ┌─────────────┐
//	│ feed       │──────────→│             │
//	├────────────┤  status   │             │  TakeSnapshot  ┌───────────┐
//	│ poller     │──────────→│ state.Store │───────────────→│ scheduler │→ ui
//	├────────────┤  results  │             │                └───────────┘
//	│ gateway    │──────────→│             │
//	│ upload     │──────────→│             │
//	└────────────┘           └─────────────┘
//
// # Fallback Poller
//
// The poller only issues requests while FeedConnected is false, so a healthy
// socket costs no extra HTTP traffic. Consecutive failures double the wait
// from the configured interval up to 30 seconds; a success resets it.
//
// # Shutdown
//
// Cancelling the context passed to Run (SIGINT/SIGTERM in main) or quitting
// the UI stops the feed, the poller and any in-flight request.
package app
