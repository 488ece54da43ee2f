// Package state provides the thread-safe result store for directory screens.
//
// # Overview
//
// The Store holds the last list of items accepted from the API together with
// optimistic local mutations (for example a "saved" flag toggled by the user).
// It is the coordination point where fetch results and user edits meet UI
// rendering.
//
// # Architecture
//
//	Engine (fetch result):          UI (render / user edit):
//	┌──────────────────┐            ┌──────────────────────┐
//	│ ReplaceAll(items)│            │ Snapshot()           │
//	│ Fail(err)        │───────────→│   merged items       │
//	│                  │  (RWMutex) │ ApplyMutation(...)   │
//	└──────────────────┘            └──────────────────────┘
//
// # Merge Semantics
//
// Server fields are stored untouched. Every Snapshot builds copies of the
// items and lays the live mutations over them, so the displayed value of a
// field is always the pending mutation value if one exists, otherwise the
// server value. A render never sees a half-applied merge because the whole
// copy happens under the read lock.
//
// # Reconciliation
//
// ReplaceAll drops a pending mutation when the fresh server value already
// equals the mutated value (confirmed). Otherwise the mutation is kept and
// keeps winning over the server. A mutation also ends when:
//
//   - Acknowledge is called after the server accepted a persisted edit
//   - Reject is called after the server refused it
//   - TTL elapses (when configured)
//
// Mutation kinds with no persistence endpoint are never acknowledged and live
// for the in-memory session only.
//
// # Error Handling
//
// Fail keeps the previous items and records the error, mirroring how the UI
// should keep showing the last good data with an "unable to reach service"
// banner. ConsecutiveFailures resets on the next ReplaceAll.
//
// # Decoding
//
// DecodeItems turns a JSON payload into items, handling envelope responses
// (for example {"collab_circle": [...]}) and normalizing numeric ids to
// strings. Rows without an id stay visible under a positional id but never
// take overlays, so a reordered response cannot move an edit onto another
// record.
package state
