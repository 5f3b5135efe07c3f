package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ansel1/annotate/output/format"
)

// GitHubSink writes GitHub Actions workflow commands.
type GitHubSink struct {
	writer io.Writer
	failed bool

	stepSummary string // Path of $GITHUB_STEP_SUMMARY, if any
	summary     *format.Summary
}

// NewGitHubSink creates a sink writing workflow commands to w (normally stdout).
// When stepSummary is not empty, Flush appends a markdown failure summary
// to that file.
func NewGitHubSink(w io.Writer, stepSummary string) *GitHubSink {
	return &GitHubSink{writer: w, stepSummary: stepSummary}
}

// Warn emits a ::warning command.
func (s *GitHubSink) Warn(message string) {
	fmt.Fprintf(s.writer, "::warning::%s\n", escapeData(message))
}

// Info writes the message as plain log output.
func (s *GitHubSink) Info(message string) {
	fmt.Fprintln(s.writer, strings.TrimRight(message, "\n"))
}

// ReportError emits an ::error command bound to file and line.
func (s *GitHubSink) ReportError(message, file string, line int) {
	fmt.Fprintf(s.writer, "::error file=%s,line=%d::%s\n", escapeProperty(file), line, escapeData(message))
}

// Fail emits a file-less ::error command and marks the run failed.
func (s *GitHubSink) Fail(message string) {
	s.failed = true
	fmt.Fprintf(s.writer, "::error::%s\n", escapeData(message))
}

// Failed reports whether Fail was called.
func (s *GitHubSink) Failed() bool {
	return s.failed
}

// SetSummary records the summary written to the step summary file.
func (s *GitHubSink) SetSummary(summary *format.Summary) {
	s.summary = summary
}

// Flush appends the summary to the step summary file.
func (s *GitHubSink) Flush(_ context.Context) error {
	if s.stepSummary == "" || s.summary == nil {
		return nil
	}
	f, err := os.OpenFile(s.stepSummary, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, format.Markdown(s.summary)); err != nil {
		return fmt.Errorf("writing step summary: %w", err)
	}
	return nil
}

// escapeData encodes a command message. The trailing line terminator that
// test output carries is dropped so it does not render as an empty line.
func escapeData(s string) string {
	s = strings.TrimSuffix(s, "\n")
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

func escapeProperty(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	s = strings.ReplaceAll(s, ":", "%3A")
	s = strings.ReplaceAll(s, ",", "%2C")
	return s
}
