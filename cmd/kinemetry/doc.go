// Command kinemetry is the CLI for offline movement analysis and for
// reviewing stored sessions.
package main
