package source

import (
	"context"
	"errors"

	"github.com/ludokit/gamescan/internal/model"
)

// Done is returned by Iterator.Next when the scan has produced its last
// element. It follows the io.EOF convention: it signals termination, not
// failure.
var Done = errors.New("source: scan complete")

// Source produces a lazy sequence of discovered games for one launcher.
//
// Implementations must tolerate being scanned with a launcher in any
// state: Installed reports availability, and a source whose backing files
// disappear mid-scan reports per-element errors rather than panicking.
type Source interface {
	// ID returns the stable source identifier, e.g. "steam".
	ID() string

	// Installed reports whether the launcher is present on this machine.
	// The importer performs zero discovery work for uninstalled sources.
	Installed() bool

	// Scan begins a discovery pass and returns the iterator for it.
	// The sequence has no assumed upper bound; callers pull until Done.
	Scan(ctx context.Context) Iterator
}

// Iterator yields the elements of one discovery pass.
type Iterator interface {
	// Next returns the next scan result.
	// It returns Done when the sequence is exhausted. Any other error
	// applies to a single element: callers should log it and keep pulling.
	Next(ctx context.Context) (model.ScanResult, error)
}

// IteratorFunc adapts a function to the Iterator interface.
type IteratorFunc func(ctx context.Context) (model.ScanResult, error)

// Next implements Iterator.
func (f IteratorFunc) Next(ctx context.Context) (model.ScanResult, error) {
	return f(ctx)
}
