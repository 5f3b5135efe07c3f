// Package report runs the whole pipeline: stream the input, classify
// records, extract and merge diagnostics, and hand them to a sink.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	log "github.com/charmbracelet/log"

	"github.com/ansel1/annotate/diagnostics"
	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/output"
	"github.com/ansel1/annotate/output/format"
	"github.com/ansel1/annotate/results"
)

// Stdin is the input path that selects standard input.
const Stdin = "-"

// Config controls a single run.
type Config struct {
	Path          string // Input file, or Stdin
	StripSegments int
	MaxLineSize   int
	Diagnostics   diagnostics.Options
	Tee           io.Writer // Optional copy of every input line
	Stdin         io.Reader // Read when Path is Stdin; defaults to os.Stdin
}

// Runner executes the pipeline.
type Runner struct {
	cfg    Config
	sink   output.Sink
	logger *log.Logger
	stdin  io.Reader

	// Watch, when set, receives the engine events in place of the
	// collector and must return the collector's result. It lets a progress
	// display sit between the engine and the collector.
	Watch func(ctx context.Context, events <-chan engine.Event, c *results.Collector) (*results.Table, error)
}

// NewRunner creates a runner reporting to sink.
func NewRunner(cfg Config, sink output.Sink, logger *log.Logger) *Runner {
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	return &Runner{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		stdin:  stdin,
	}
}

// Run processes the configured input. A missing input file is reported
// as a warning and is not an error.
func (r *Runner) Run(ctx context.Context) ([]diagnostics.Diagnostic, error) {
	if err := r.cfg.Diagnostics.Validate(); err != nil {
		return nil, err
	}

	input, closeFn, err := r.open()
	if errors.Is(err, fs.ErrNotExist) {
		r.sink.Warn(fmt.Sprintf("No file was found with the provided path: %s.", r.cfg.Path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closeFn()

	r.logger.Debug("Reading test results", "path", r.cfg.Path)

	opts := []engine.Option{engine.WithMaxLineSize(r.cfg.MaxLineSize)}
	if r.cfg.Tee != nil {
		opts = append(opts, engine.WithRawOutput(r.cfg.Tee))
	}
	events := engine.NewEngine(opts...).Stream(ctx, input)

	collector := results.NewCollector(results.WithStripSegments(r.cfg.StripSegments))
	var table *results.Table
	if r.Watch != nil {
		table, err = r.Watch(ctx, events, collector)
	} else {
		table, err = collector.Consume(ctx, events)
	}
	if err != nil {
		drain(events)
		return nil, err
	}

	stats := collector.Stats()
	r.logger.Debug("Classified test events",
		"records", stats.Records,
		"groups", stats.Groups,
		"failed", stats.Failed,
		"lines", stats.Lines,
		"discarded", stats.Discarded)

	merged := diagnostics.Merge(diagnostics.Extract(table, r.cfg.Diagnostics))
	for _, d := range merged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.sink.ReportError(d.Message, d.Location.File, d.Location.Line)
	}

	if sm, ok := r.sink.(output.Summarizer); ok {
		sm.SetSummary(format.ComputeSummary(table, r.cfg.Diagnostics))
	}

	r.logger.Info("Annotated test failures", "failed_tests", stats.Failed, "locations", len(merged))
	return merged, nil
}

func (r *Runner) open() (io.Reader, func(), error) {
	if r.cfg.Path == Stdin {
		return r.stdin, func() {}, nil
	}
	if _, err := os.Stat(r.cfg.Path); err != nil {
		return nil, nil, fmt.Errorf("checking test results: %w", err)
	}
	f, err := os.Open(r.cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening test results: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// drain lets the engine goroutine finish after an early return.
func drain(events <-chan engine.Event) {
	go func() {
		for range events {
		}
	}()
}
