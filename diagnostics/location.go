// Package diagnostics recovers source locations from failed test output and
// merges the messages found there into one diagnostic per location.
package diagnostics

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidLineBase is returned for a line base other than 0 or 1.
var ErrInvalidLineBase = errors.New("line base must be 0 or 1")

// Location identifies where a failure message originates.
type Location struct {
	File string
	Line int
}

// Key returns the "file:line" merge key.
func (l Location) Key() string {
	return l.File + ":" + strconv.Itoa(l.Line)
}

func (l Location) String() string {
	return l.Key()
}

// Fragment is one message attributed to a location.
type Fragment struct {
	Message  string
	Location Location
}

// Diagnostic is the accumulated message for a single location.
type Diagnostic struct {
	Message  string
	Location Location
}

// Options controls how locations are reported.
type Options struct {
	// LineBase is 1 to report line numbers as printed by the test, or 0 to
	// report them zero-based (printed line minus one).
	LineBase int
	// ResolvePaths joins file references with the group's package name
	// unless they are already absolute.
	ResolvePaths bool
}

// DefaultOptions returns one-based lines with package-resolved paths.
func DefaultOptions() Options {
	return Options{
		LineBase:     1,
		ResolvePaths: true,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.LineBase != 0 && o.LineBase != 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLineBase, o.LineBase)
	}
	return nil
}
