// Package engine runs the poll loop that keeps the display current.
//
// One goroutine owns the loop. It performs the initial poll, then waits on
// the interval ticker, manual refresh requests, host key events and
// debounced media player changes. Every trigger runs the same cycle:
//
//	fetch track info ─┬─ error ──────────────> render fallback view
//	                  └─ ok ─┬─ no art URL ──> render labels
//	                         └─ fetch art ─┬─ error ─> render labels, keep image
//	                                       └─ ok ────> process, render all
//
// Cycles never overlap because only the loop goroutine runs them. Refresh
// requests that arrive while a cycle is running collapse into one.
package engine
