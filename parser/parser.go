package parser

import (
	"encoding/json"
	"time"
)

// Actions emitted by `go test -json` that the classifier cares about.
const (
	ActionOutput = "output"
	ActionFail   = "fail"
)

// TestEvent represents a single event from `go test -json` output.
//
// Test and Output are pointers because an absent field and an empty one mean
// different things: package-level events carry no Test at all.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    *string   `json:"Test,omitempty"`
	Output  *string   `json:"Output,omitempty"`
	Elapsed float64   `json:"Elapsed,omitempty"`
}

// ParseEvent parses a single line of JSON from `go test -json` output
func ParseEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	return event, nil
}

// HasTest reports whether the event belongs to a test rather than a package.
func (e TestEvent) HasTest() bool {
	return e.Test != nil
}

// TestName returns the test name, or "" for package-level events.
func (e TestEvent) TestName() string {
	if e.Test == nil {
		return ""
	}
	return *e.Test
}

// OutputText returns the output line and whether one was present.
func (e TestEvent) OutputText() (string, bool) {
	if e.Output == nil {
		return "", false
	}
	return *e.Output, true
}
