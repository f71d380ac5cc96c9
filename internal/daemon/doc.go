// Package daemon runs the live analysis service. It enforces
// single-instance execution with a file lock, listens for websocket
// pose streams, drives one session per connection and persists the
// results to the store.
package daemon
