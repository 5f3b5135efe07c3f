package results

import (
	"context"
	"errors"
	"regexp"

	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/parser"
)

// ErrIncompleteStream is returned when the event channel closes without an
// end-of-stream event.
var ErrIncompleteStream = errors.New("event stream closed before completion")

// boilerplate matches the framework's own RUN and PASS/FAIL marker lines.
var boilerplate = regexp.MustCompile(`^(=== RUN|\s*--- (FAIL|PASS): )`)

// Collector classifies engine events into a Table of groups keyed by
// (package, test).
//
// A Collector is owned by a single goroutine; it does no locking. The table
// must not be read for extraction until the end-of-stream event was consumed.
type Collector struct {
	table         *Table
	stats         Stats
	stripSegments int
	listener      func(Event)
	finished      bool
}

// Option configures the collector
type Option func(*Collector)

// WithStripSegments sets how many leading Package segments are dropped.
func WithStripSegments(n int) Option {
	return func(c *Collector) {
		c.stripSegments = n
	}
}

// WithListener registers fn to receive collector events as they happen.
func WithListener(fn func(Event)) Option {
	return func(c *Collector) {
		c.listener = fn
	}
}

// NewCollector creates a new result collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		table:         NewTable(),
		stripSegments: DefaultStripSegments,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume reads events until end of stream and returns the finished table.
// An EventError aborts consumption and is returned as is, as is ctx.Err()
// once ctx is canceled.
func (c *Collector) Consume(ctx context.Context, events <-chan engine.Event) (*Table, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil, ErrIncompleteStream
			}
			if err := c.Push(evt); err != nil {
				return nil, err
			}
			if c.finished {
				return c.table, nil
			}
		}
	}
}

// Push processes a single engine event.
func (c *Collector) Push(evt engine.Event) error {
	switch evt.Type {
	case engine.EventTest:
		c.handleTestEvent(evt.TestEvent)
	case engine.EventError:
		return evt.Error
	case engine.EventComplete:
		c.finished = true
		c.emit(NewFinishedEvent(c.stats))
	}
	return nil
}

// SetListener replaces the event listener. It must be called before the
// collector starts consuming.
func (c *Collector) SetListener(fn func(Event)) {
	c.listener = fn
}

// Finished reports whether the end-of-stream event has been seen.
func (c *Collector) Finished() bool {
	return c.finished
}

// Table returns the grouping table built so far.
func (c *Collector) Table() *Table {
	return c.table
}

// Stats returns the collector counters.
func (c *Collector) Stats() Stats {
	return c.stats
}

func (c *Collector) emit(evt Event) {
	if c.listener != nil {
		c.listener(evt)
	}
}

func (c *Collector) handleTestEvent(event parser.TestEvent) {
	c.stats.Records++

	// Package-level events are not attributable to a test
	if !event.HasTest() {
		return
	}

	pkgName := PackageName(event.Package, c.stripSegments)
	key := GroupKey(pkgName, event.TestName())

	switch event.Action {
	case parser.ActionOutput:
		output, ok := event.OutputText()
		if !ok {
			return
		}
		if boilerplate.MatchString(output) {
			c.stats.Discarded++
			return
		}
		g := c.groupFor(key, pkgName, event.TestName())
		g.Output = append(g.Output, output)
		c.stats.Lines++
		c.emit(NewGroupOutputEvent(key, output, c.stats))

	case parser.ActionFail:
		g := c.groupFor(key, pkgName, event.TestName())
		if g.Status != StatusFail {
			g.Status = StatusFail
			c.stats.Failed++
			c.emit(NewGroupFailedEvent(key, c.stats))
		}
	}
}

func (c *Collector) groupFor(key, pkgName, test string) *Group {
	g, created := c.table.group(key, pkgName, test)
	if created {
		c.stats.Groups++
		c.emit(NewGroupStartedEvent(key, c.stats))
	}
	return g
}
