// Package devsync owns the connection to the physical button panel and
// keeps it consistent with the config store.
//
// The synchronizer runs a small state machine: disconnected, connecting,
// connected. Connection attempts back off exponentially up to a cap. A
// fresh connection always gets a full repaint plus the persisted
// brightness; after that only keys whose rendered content hash differs
// from what was last written get pushed, so an idle deck costs nothing.
// Store mutations arrive over the message bus and trigger a
// reconciliation; a heartbeat reconciles periodically regardless, which
// also heals a panel that lost state without dropping the connection.
//
// Any device I/O failure tears the connection down and restarts the
// cycle. Key-down transitions are debounced and surface on Presses for
// the dispatcher; the channel is bounded and drops under backlog so a
// stuck action can never wedge the device loop.
package devsync
