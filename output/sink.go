// Package output delivers diagnostics to an annotation sink: GitHub Actions
// workflow commands, the GitHub Checks API, or a terminal.
package output

import (
	"context"
	"errors"

	"github.com/ansel1/annotate/output/format"
)

// Format names accepted by New.
const (
	FormatGitHub   = "github"
	FormatChecks   = "checks"
	FormatTerminal = "terminal"
)

// Output errors.
var (
	ErrUnknownFormat         = errors.New("unknown output format")
	ErrNoToken               = errors.New("a GitHub token is required for the checks format")
	ErrNoRepository          = errors.New("repository must be in owner/name form")
	ErrNoSHA                 = errors.New("a head commit SHA is required for the checks format")
	ErrCheckRunCreateFailed  = errors.New("failed to create check run")
	ErrCheckRunUpdateFailed  = errors.New("failed to update check run")
	ErrCheckRunMissingResult = errors.New("check run response has no ID")
)

// Sink receives annotations.
type Sink interface {
	// Warn reports a non-fatal condition.
	Warn(message string)
	// Info reports an informational message.
	Info(message string)
	// ReportError annotates file:line with message at error severity.
	ReportError(message, file string, line int)
	// Fail marks the whole run as failed.
	Fail(message string)
}

// Flusher is implemented by sinks that buffer annotations.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Summarizer is implemented by sinks that render a per-package summary of
// failed tests next to their annotations.
type Summarizer interface {
	SetSummary(summary *format.Summary)
}

// Flush flushes s if it buffers annotations.
func Flush(ctx context.Context, s Sink) error {
	if f, ok := s.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
