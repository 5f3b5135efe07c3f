package output

import (
	"fmt"
	"io"

	log "github.com/charmbracelet/log"
	"github.com/google/go-github/v59/github"
)

// Options selects and configures a sink.
type Options struct {
	Format string
	Writer io.Writer
	Logger *log.Logger
	Width  int // Terminal wrap width

	// GitHub format only: markdown summary file ($GITHUB_STEP_SUMMARY)
	StepSummary string

	// Checks format only
	Client *github.Client
	Checks ChecksConfig
}

// New creates the sink named by opts.Format.
func New(opts Options) (Sink, error) {
	switch opts.Format {
	case FormatGitHub:
		return NewGitHubSink(opts.Writer, opts.StepSummary), nil
	case FormatTerminal:
		return NewTerminalSink(opts.Writer, opts.Logger, opts.Width), nil
	case FormatChecks:
		if opts.Client == nil {
			return nil, ErrNoToken
		}
		return NewChecksSink(opts.Client, opts.Checks, opts.Logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}
