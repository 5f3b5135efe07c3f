package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ansel1/annotate/parser"
)

// ErrMalformedRecord is returned (wrapped) when an input line is not a valid test event.
var ErrMalformedRecord = errors.New("malformed test event")

// DefaultMaxLineSize is the longest input line the engine accepts by default.
// go test output lines routinely exceed bufio's 64KiB default.
const DefaultMaxLineSize = 1024 * 1024

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventTest     EventType = "test"     // Parsed test event from go test -json
	EventError    EventType = "error"    // Fatal error; no further events follow
	EventComplete EventType = "complete" // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type      EventType
	Line      int              // 1-based input line number
	TestEvent parser.TestEvent // Populated for EventTest
	Error     error            // Populated for EventError
}

// Engine reads go test -json input and broadcasts parsed events.
// It maintains no state about tests.
type Engine struct {
	rawWriter   io.Writer
	maxLineSize int
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput configures engine to copy every input line to w
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithMaxLineSize sets the longest line the engine will read.
func WithMaxLineSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLineSize = n
		}
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{maxLineSize: DefaultMaxLineSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, parses lines, and emits events via channel.
//
// The stream ends with exactly one EventComplete or one EventError, after
// which the channel is closed. A line that fails to parse is fatal. When ctx
// is canceled the channel is closed without an end-of-stream event; a read
// already blocked on input is not interrupted.
func (e *Engine) Stream(ctx context.Context, input io.Reader) <-chan Event {
	events := make(chan Event, 100) // buffered channel for better throughput

	go func() {
		defer close(events)

		send := func(evt Event) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(input)
		// The initial capacity also bounds the token size, so it must not exceed the limit
		scanner.Buffer(make([]byte, 0, min(64*1024, e.maxLineSize)), e.maxLineSize)

		lineNo := 0
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			lineNo++
			line := scanner.Bytes()

			if e.rawWriter != nil {
				e.rawWriter.Write(line)
				e.rawWriter.Write([]byte("\n"))
			}

			testEvent, err := parser.ParseEvent(line)
			if err != nil {
				send(Event{
					Type:  EventError,
					Line:  lineNo,
					Error: fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, lineNo, err),
				})
				return
			}

			if !send(Event{
				Type:      EventTest,
				Line:      lineNo,
				TestEvent: testEvent,
			}) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(Event{
				Type:  EventError,
				Line:  lineNo + 1,
				Error: fmt.Errorf("reading line %d: %w", lineNo+1, err),
			})
			return
		}

		send(Event{
			Type: EventComplete,
			Line: lineNo,
		})
	}()

	return events
}
