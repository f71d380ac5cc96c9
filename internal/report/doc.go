// Package report renders session results for the terminal: summary lines,
// per-rep angle tables, flagged compensation patterns, and the feedback
// ranking. Output is plain text with ANSI color only when the destination is
// a TTY.
package report
