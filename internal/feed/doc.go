// Package feed maintains the printer's WebSocket status feed.
//
// The device pushes one JSON status object per message. Manager decodes each
// frame and merges it into the store as the new printer snapshot; frames that
// do not decode are logged and skipped while the connection stays up.
//
// Connection lifecycle:
//
//	Connecting ──dial ok──→ Open ──close/error──→ Reconnecting
//	     │                                            │  ↑
//	     └──────────dial failed──────────────────────→┘  │
//	                                   wait fixed delay ─┘
//
// Every closure, including a failed dial, schedules exactly one new dial
// after the fixed delay (500ms by default). The manager never gives up and
// never backs off; it stops only when its context is cancelled. While the
// socket is down the last printer snapshot stays in the store and
// FeedConnected is false.
package feed
