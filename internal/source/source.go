// Package source provides raw line sources feeding the pipeline. A source pushes
// every line, initial and live, through the append callback it was built with; it
// never touches the store or the pipeline directly.
package source

import "context"

// Source is a raw line feed over some identifier (a file path, a stream name).
type Source interface {
	// Prepare synchronously replays pre-existing content through the append
	// callback and returns the number of lines replayed.
	Prepare(ctx context.Context, identifier string) (int, error)
	// Start begins live delivery. Non-blocking; delivery happens on the source's
	// own goroutine until Stop.
	Start(ctx context.Context) error
	// Stop ends live delivery and waits for the delivery goroutine to exit.
	Stop() error
}
