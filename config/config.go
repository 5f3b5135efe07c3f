// Package config resolves settings from flags, environment variables
// (including GitHub Actions inputs) and an optional .annotate.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/output"
	"github.com/ansel1/annotate/results"
)

// Configuration keys.
const (
	KeyTestResults   = "test-results"
	KeyFormat        = "format"
	KeyLineBase      = "line-base"
	KeyResolvePaths  = "resolve-paths"
	KeyStripSegments = "strip-segments"
	KeyMaxLineSize   = "max-line-size"
	KeyTUI           = "tui"
	KeyOutfile       = "outfile"
	KeyLogLevel      = "log-level"
	KeyNoColor       = "no-color"
	KeyGitHubToken   = "github-token"
	KeyGitHubAPIURL  = "github-api-url"
	KeyRepository    = "repository"
	KeySHA           = "sha"
	KeyCheckName     = "check-name"
	KeyStepSummary   = "step-summary"

	keyGitHubActions = "github-actions"
	keyRunnerDebug   = "runner-debug"
)

// EnvPrefix prefixes every environment variable the tool reads.
const EnvPrefix = "ANNOTATE"

// ConfigName is the config file looked up in the working directory.
const ConfigName = ".annotate"

// Config errors.
var (
	ErrInvalidFormat        = errors.New("invalid format")
	ErrInvalidStripSegments = errors.New("strip-segments must not be negative")
	ErrInvalidMaxLineSize   = errors.New("max-line-size must be positive")
	ErrInvalidLineBase      = errors.New("line-base must be 0 or 1")
)

// Config holds resolved settings.
type Config struct {
	TestResults   string
	Format        string
	LineBase      int
	ResolvePaths  bool
	StripSegments int
	MaxLineSize   int
	TUI           bool
	Outfile       string
	LogLevel      string
	NoColor       bool

	GitHubToken  string
	GitHubAPIURL string
	Repository   string
	SHA          string
	CheckName    string
	StepSummary  string
}

var inputKeys = []string{
	KeyTestResults, KeyFormat, KeyLineBase, KeyResolvePaths, KeyStripSegments,
	KeyMaxLineSize, KeyOutfile, KeyLogLevel, KeyGitHubToken, KeyRepository,
	KeySHA, KeyCheckName,
}

// New returns a viper instance with defaults and environment bindings.
//
// Every key can be set through ANNOTATE_<KEY> and, when running as a
// GitHub Action, through INPUT_<KEY> (e.g. INPUT_TEST-RESULTS).
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyTestResults, "test-results.json")
	v.SetDefault(KeyLineBase, 1)
	v.SetDefault(KeyResolvePaths, true)
	v.SetDefault(KeyStripSegments, results.DefaultStripSegments)
	v.SetDefault(KeyMaxLineSize, engine.DefaultMaxLineSize)
	v.SetDefault(KeyCheckName, "go test")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, key := range inputKeys {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		_ = v.BindEnv(key, envKey, "INPUT_"+strings.ToUpper(key))
	}

	_ = v.BindEnv(KeyGitHubToken, EnvPrefix+"_GITHUB_TOKEN", "INPUT_GITHUB-TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv(KeyGitHubAPIURL, EnvPrefix+"_GITHUB_API_URL", "GITHUB_API_URL")
	_ = v.BindEnv(KeyRepository, EnvPrefix+"_REPOSITORY", "INPUT_REPOSITORY", "GITHUB_REPOSITORY")
	_ = v.BindEnv(KeySHA, EnvPrefix+"_SHA", "INPUT_SHA", "GITHUB_SHA")
	_ = v.BindEnv(KeyStepSummary, EnvPrefix+"_STEP_SUMMARY", "GITHUB_STEP_SUMMARY")
	_ = v.BindEnv(keyGitHubActions, "GITHUB_ACTIONS")
	_ = v.BindEnv(keyRunnerDebug, "RUNNER_DEBUG")

	return v
}

// ReadFile loads configFile, or .annotate.{yaml,yml,json,toml} from the
// working directory when configFile is empty. A missing default file is
// not an error.
func ReadFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TestResults:   v.GetString(KeyTestResults),
		Format:        v.GetString(KeyFormat),
		LineBase:      v.GetInt(KeyLineBase),
		ResolvePaths:  v.GetBool(KeyResolvePaths),
		StripSegments: v.GetInt(KeyStripSegments),
		MaxLineSize:   v.GetInt(KeyMaxLineSize),
		TUI:           v.GetBool(KeyTUI),
		Outfile:       v.GetString(KeyOutfile),
		LogLevel:      v.GetString(KeyLogLevel),
		NoColor:       v.GetBool(KeyNoColor),
		GitHubToken:   v.GetString(KeyGitHubToken),
		GitHubAPIURL:  v.GetString(KeyGitHubAPIURL),
		Repository:    v.GetString(KeyRepository),
		SHA:           v.GetString(KeySHA),
		CheckName:     v.GetString(KeyCheckName),
		StepSummary:   v.GetString(KeyStepSummary),
	}

	if cfg.Format == "" {
		cfg.Format = output.FormatTerminal
		if v.GetBool(keyGitHubActions) {
			cfg.Format = output.FormatGitHub
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		// Debug logging was enabled for a re-run of the workflow
		if v.GetString(keyRunnerDebug) == "1" {
			cfg.LogLevel = "debug"
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Format {
	case output.FormatGitHub, output.FormatChecks, output.FormatTerminal:
	default:
		return fmt.Errorf("%w: %q (want %s, %s or %s)", ErrInvalidFormat, c.Format,
			output.FormatGitHub, output.FormatChecks, output.FormatTerminal)
	}
	if c.LineBase != 0 && c.LineBase != 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLineBase, c.LineBase)
	}
	if c.StripSegments < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidStripSegments, c.StripSegments)
	}
	if c.MaxLineSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxLineSize, c.MaxLineSize)
	}
	return nil
}
