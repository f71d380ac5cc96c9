// Package store persists sessions, measurements, flagged compensation
// patterns, rep summaries, and feedback rankings in SQLite.
//
// The store is the system of record for offline review: the daemon writes
// rows as sessions run and the CLI reads them back for reports. Access goes
// through context-aware methods with a bounded busy-retry loop so concurrent
// readers never wedge a live session's writes.
package store
