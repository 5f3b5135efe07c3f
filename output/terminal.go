package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ansel1/annotate/output/format"
)

// TerminalSink renders diagnostics for a person reading a terminal.
// Warnings, info and failures go through the logger; diagnostics are
// written to w.
type TerminalSink struct {
	writer   io.Writer
	logger   *log.Logger
	width    int
	reported int
	failed   bool
	summary  *format.Summary

	locationStyle lipgloss.Style
	summaryStyle  lipgloss.Style
	passStyle     lipgloss.Style
}

// NewTerminalSink creates a terminal sink wrapping messages at width columns.
func NewTerminalSink(w io.Writer, logger *log.Logger, width int) *TerminalSink {
	if width <= 0 {
		width = 80
	}
	return &TerminalSink{
		writer:        w,
		logger:        logger,
		width:         width,
		locationStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true), // red
		summaryStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		passStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
	}
}

// Warn logs a warning.
func (s *TerminalSink) Warn(message string) {
	s.logger.Warn(message)
}

// Info logs an informational message.
func (s *TerminalSink) Info(message string) {
	s.logger.Info(message)
}

// ReportError writes the location header followed by the indented message.
func (s *TerminalSink) ReportError(message, file string, line int) {
	s.reported++

	body := strings.TrimRight(message, "\n")
	body = wordwrap.String(body, s.width-4)
	body = indent.String(body, 4)

	fmt.Fprintln(s.writer, s.locationStyle.Render(fmt.Sprintf("%s:%d", file, line)))
	fmt.Fprintln(s.writer, body)
}

// Fail logs the failure and marks the run failed.
func (s *TerminalSink) Fail(message string) {
	s.failed = true
	s.logger.Error(message)
}

// Failed reports whether Fail was called.
func (s *TerminalSink) Failed() bool {
	return s.failed
}

// SetSummary records the failure summary printed by Flush.
func (s *TerminalSink) SetSummary(summary *format.Summary) {
	s.summary = summary
}

// Flush writes the failure summary, if any, and a one-line total.
func (s *TerminalSink) Flush(_ context.Context) error {
	if s.summary.Failed() {
		fmt.Fprintln(s.writer)
		fmt.Fprint(s.writer, format.NewSummaryFormatter(s.width).Format(s.summary))
	}

	switch s.reported {
	case 0:
		if !s.failed {
			fmt.Fprintln(s.writer, s.passStyle.Render("No test failures with source locations"))
		}
	case 1:
		fmt.Fprintln(s.writer, s.summaryStyle.Render("1 location with test failures"))
	default:
		fmt.Fprintln(s.writer, s.summaryStyle.Render(fmt.Sprintf("%d locations with test failures", s.reported)))
	}
	return nil
}
