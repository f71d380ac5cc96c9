// Package ingest turns external keypoint data into pose frames.
//
// Two sources exist: a JSONL file reader for recorded sessions and a
// WebSocket reader for live capture. Both emit frames in arrival order and
// skip malformed records, keeping a count so callers can report input
// quality instead of aborting a session over one bad line.
package ingest
