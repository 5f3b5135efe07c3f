package output

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/charmbracelet/log"
	"github.com/google/go-github/v59/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ansel1/annotate/output/format"
)

const (
	// MaxAnnotationsPerRequest is GitHub's limit on annotations per check run request.
	MaxAnnotationsPerRequest = 50
	// MaxAnnotationMessageSize is GitHub's limit on an annotation message.
	MaxAnnotationMessageSize = 64 * 1024

	publicAPIURL = "https://api.github.com"

	annotationLevelFailure = "failure"
	statusCompleted        = "completed"
	conclusionSuccess      = "success"
	conclusionFailure      = "failure"
	conclusionNeutral      = "neutral"
)

// ChecksConfig identifies the commit a check run is attached to.
type ChecksConfig struct {
	Repository string // owner/name
	SHA        string
	Name       string // Check run name
}

// NewGitHubClient creates an authenticated GitHub API client. baseURL is
// only needed for GitHub Enterprise.
func NewGitHubClient(ctx context.Context, token, baseURL string) (*github.Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	// Actions runners on github.com set GITHUB_API_URL to the public API
	if baseURL == "" || strings.TrimSuffix(baseURL, "/") == publicAPIURL {
		return client, nil
	}
	return client.WithEnterpriseURLs(baseURL, baseURL)
}

// ChecksSink buffers annotations and publishes them as a GitHub check run
// when flushed.
type ChecksSink struct {
	client      *github.Client
	owner       string
	repo        string
	sha         string
	name        string
	logger      *log.Logger
	annotations []*github.CheckRunAnnotation
	warnings    []string
	failures    []string
	summary     *format.Summary
}

// NewChecksSink creates a checks sink. The repository must be "owner/name".
func NewChecksSink(client *github.Client, cfg ChecksConfig, logger *log.Logger) (*ChecksSink, error) {
	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoRepository, cfg.Repository)
	}
	if cfg.SHA == "" {
		return nil, ErrNoSHA
	}
	name := cfg.Name
	if name == "" {
		name = "go test"
	}

	return &ChecksSink{
		client: client,
		owner:  owner,
		repo:   repo,
		sha:    cfg.SHA,
		name:   name,
		logger: logger,
	}, nil
}

// Warn logs the warning and records it in the check run summary.
func (s *ChecksSink) Warn(message string) {
	s.logger.Warn(message)
	s.warnings = append(s.warnings, message)
}

// Info logs the message.
func (s *ChecksSink) Info(message string) {
	s.logger.Info(message)
}

// ReportError buffers a failure annotation.
func (s *ChecksSink) ReportError(message, file string, line int) {
	// Annotations must point at a real line
	if line < 1 {
		line = 1
	}
	message = truncateUTF8(message, MaxAnnotationMessageSize)

	s.annotations = append(s.annotations, &github.CheckRunAnnotation{
		Path:            github.String(file),
		StartLine:       github.Int(line),
		EndLine:         github.Int(line),
		AnnotationLevel: github.String(annotationLevelFailure),
		Title:           github.String("Test failure"),
		Message:         github.String(strings.TrimRight(message, "\n")),
	})
}

// Fail logs the failure and records it in the check run summary.
func (s *ChecksSink) Fail(message string) {
	s.logger.Error(message)
	s.failures = append(s.failures, message)
}

// SetSummary adds the failure summary to the check run output.
func (s *ChecksSink) SetSummary(summary *format.Summary) {
	s.summary = summary
}

// Pending returns the number of buffered annotations.
func (s *ChecksSink) Pending() int {
	return len(s.annotations)
}

// Flush creates a completed check run carrying every buffered annotation.
// GitHub accepts at most MaxAnnotationsPerRequest annotations per request,
// so the remainder is sent through check run updates.
func (s *ChecksSink) Flush(ctx context.Context) error {
	batches := batchAnnotations(s.annotations, MaxAnnotationsPerRequest)
	title, summary := s.renderOutput()

	opts := github.CreateCheckRunOptions{
		Name:        s.name,
		HeadSHA:     s.sha,
		ExternalID:  github.String(uuid.NewString()),
		Status:      github.String(statusCompleted),
		Conclusion:  github.String(s.conclusion()),
		CompletedAt: &github.Timestamp{Time: time.Now()},
		Output: &github.CheckRunOutput{
			Title:   github.String(title),
			Summary: github.String(summary),
		},
	}
	if len(batches) > 0 {
		opts.Output.Annotations = batches[0]
	}

	checkRun, resp, err := s.client.Checks.CreateCheckRun(ctx, s.owner, s.repo, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCheckRunCreateFailed, err)
	}
	if checkRun.ID == nil {
		return ErrCheckRunMissingResult
	}
	s.logger.Debug("Created check run",
		"id", checkRun.GetID(),
		"annotations", len(opts.Output.Annotations),
		"status", statusCode(resp))

	for i := 1; i < len(batches); i++ {
		update := github.UpdateCheckRunOptions{
			Name: s.name,
			Output: &github.CheckRunOutput{
				Title:       github.String(title),
				Summary:     github.String(summary),
				Annotations: batches[i],
			},
		}
		if _, _, err := s.client.Checks.UpdateCheckRun(ctx, s.owner, s.repo, checkRun.GetID(), update); err != nil {
			return fmt.Errorf("%w: batch %d: %w", ErrCheckRunUpdateFailed, i+1, err)
		}
		s.logger.Debug("Added annotations to check run", "id", checkRun.GetID(), "batch", i+1, "annotations", len(batches[i]))
	}

	s.annotations = nil
	return nil
}

func (s *ChecksSink) conclusion() string {
	switch {
	case len(s.annotations) > 0 || len(s.failures) > 0 || s.summary.Failed():
		return conclusionFailure
	case len(s.warnings) > 0:
		return conclusionNeutral
	default:
		return conclusionSuccess
	}
}

func (s *ChecksSink) renderOutput() (string, string) {
	var title string
	switch n := len(s.annotations); n {
	case 0:
		title = "No test failures"
	case 1:
		title = "1 test failure"
	default:
		title = fmt.Sprintf("%d test failures", n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s annotated from `go test -json` output.\n", title)
	if s.summary.Failed() {
		b.WriteString("\n" + format.Markdown(s.summary))
	}
	for _, f := range s.failures {
		fmt.Fprintf(&b, "\n**Error:** %s\n", f)
	}
	for _, w := range s.warnings {
		fmt.Fprintf(&b, "\n**Warning:** %s\n", w)
	}
	return title, truncateUTF8(b.String(), MaxAnnotationMessageSize)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func batchAnnotations(all []*github.CheckRunAnnotation, size int) [][]*github.CheckRunAnnotation {
	var batches [][]*github.CheckRunAnnotation
	for start := 0; start < len(all); start += size {
		end := min(start+size, len(all))
		batches = append(batches, all[start:end])
	}
	return batches
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
