// Package cmd implements the annotate command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	log "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ansel1/annotate/config"
	"github.com/ansel1/annotate/diagnostics"
	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/output"
	"github.com/ansel1/annotate/report"
	"github.com/ansel1/annotate/results"
	"github.com/ansel1/annotate/tui"
)

// ErrInvalidLogLevel is returned for an unrecognized --log-level.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Version is overridden at build time with -ldflags.
var Version = "dev"

// app carries the streams and configuration of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// failed is set once the sink was told the run failed.
	failed bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		v:      config.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "annotate [test-results]",
		Short: "Annotate go test failures with file and line locations",
		Long: `Annotate reads the JSON stream written by "go test -json", finds the
file:line locations reported by failing tests, and publishes them as
annotations: GitHub Actions workflow commands, a GitHub check run, or a
terminal report.

The input path defaults to test-results.json; "-" reads standard input.`,
		Example: `  # Inside a GitHub Actions step
  go test -json ./... > test-results.json
  annotate

  # Pipe directly and keep a copy of the stream
  go test -json ./... | annotate --outfile results.json -

  # Publish a check run through the API
  annotate --format checks test-results.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return config.ReadFile(a.v, a.configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.v.Set(config.KeyTestResults, args[0])
			}
			return a.run(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file path (default: .annotate.yaml)")
	root.PersistentFlags().String(config.KeyLogLevel, "", "Log level: debug, info, warn, error, fatal (default: info)")
	root.PersistentFlags().Bool(config.KeyNoColor, false, "Disable color output")

	f := root.Flags()
	f.StringP(config.KeyFormat, "f", "", "Output format: github, checks, terminal (default: github inside GitHub Actions)")
	f.Int(config.KeyLineBase, 1, "Line number origin in test output: 1, or 0 to shift lines down by one")
	f.Bool(config.KeyResolvePaths, true, "Join reported file names with the test's package path")
	f.Int(config.KeyStripSegments, results.DefaultStripSegments, "Leading import path segments dropped from package names")
	f.Int(config.KeyMaxLineSize, engine.DefaultMaxLineSize, "Longest accepted input line in bytes")
	f.Bool(config.KeyTUI, false, "Show a progress display on stderr while reading")
	f.StringP(config.KeyOutfile, "o", "", "Write a copy of the input stream to this file")
	f.String(config.KeyGitHubToken, "", "GitHub token for the checks format (default: $GITHUB_TOKEN)")
	f.String(config.KeyGitHubAPIURL, "", "GitHub API URL for GitHub Enterprise (default: $GITHUB_API_URL)")
	f.String(config.KeyRepository, "", "owner/name of the repository (default: $GITHUB_REPOSITORY)")
	f.String(config.KeySHA, "", "Head commit for the check run (default: $GITHUB_SHA)")
	f.String(config.KeyCheckName, "go test", "Check run name")
	f.String(config.KeyStepSummary, "", "Append a markdown summary to this file (default: $GITHUB_STEP_SUMMARY)")

	return root
}

// run wires configuration into a report runner and a sink.
func (a *app) run(ctx context.Context) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	if cfg.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	logger, err := newLogger(a.stderr, cfg.LogLevel, cfg.NoColor)
	if err != nil {
		return err
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("Loaded config file", "file", used)
	}

	sink, err := a.newSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runCfg := report.Config{
		Path:          cfg.TestResults,
		StripSegments: cfg.StripSegments,
		MaxLineSize:   cfg.MaxLineSize,
		Diagnostics: diagnostics.Options{
			LineBase:     cfg.LineBase,
			ResolvePaths: cfg.ResolvePaths,
		},
		Stdin: a.stdin,
	}
	if cfg.Outfile != "" {
		f, err := os.Create(cfg.Outfile)
		if err != nil {
			return fmt.Errorf("creating outfile: %w", err)
		}
		defer f.Close()
		runCfg.Tee = f
	}

	runner := report.NewRunner(runCfg, sink, logger)
	if cfg.TUI && isTerminal(a.stderr) {
		runner.Watch = func(ctx context.Context, events <-chan engine.Event, c *results.Collector) (*results.Table, error) {
			return tui.Watch(ctx, events, c, tea.WithOutput(a.stderr), tea.WithInput(nil))
		}
	}

	if _, err := runner.Run(ctx); err != nil {
		logger.Debug("Run failed", "err", err)
		sink.Fail(err.Error())
		a.failed = true
	}

	if err := output.Flush(ctx, sink); err != nil {
		logger.Error("Publishing annotations failed", "err", err)
		a.failed = true
	}

	if f, ok := sink.(interface{ Failed() bool }); ok && f.Failed() {
		a.failed = true
	}
	return nil
}

func (a *app) newSink(ctx context.Context, cfg config.Config, logger *log.Logger) (output.Sink, error) {
	opts := output.Options{
		Format: cfg.Format,
		Writer: a.stdout,
		Logger: logger,
		Width:  terminalWidth(a.stdout),

		StepSummary: cfg.StepSummary,

		Checks: output.ChecksConfig{
			Repository: cfg.Repository,
			SHA:        cfg.SHA,
			Name:       cfg.CheckName,
		},
	}

	if cfg.Format == output.FormatChecks {
		if cfg.GitHubToken == "" {
			return nil, output.ErrNoToken
		}
		client, err := output.NewGitHubClient(ctx, cfg.GitHubToken, cfg.GitHubAPIURL)
		if err != nil {
			return nil, err
		}
		opts.Client = client
	}

	return output.New(opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := newApp(stdin, stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := fang.Execute(ctx, root, fang.WithVersion(Version)); err != nil {
		return 1
	}
	if a.failed {
		return 1
	}
	return 0
}
