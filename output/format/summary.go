// Package format summarizes failed tests per package for people reading a
// terminal, a workflow step summary, or a check run.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ansel1/annotate/diagnostics"
	"github.com/ansel1/annotate/results"
)

// Symbol constants for summary lines
const (
	SymbolPass = "✓"
	SymbolFail = "✗"
	SymbolNone = "∅"
)

// Indentation constants
const (
	IndentLevel1 = "  "   // 2 spaces
	IndentLevel2 = "    " // 4 spaces
)

// PackageSummary holds the failures of one package.
type PackageSummary struct {
	Name        string
	FailedTests []string // In first-reference order
	Locations   int      // Distinct locations reported by this package's failed tests
}

// Summary is computed from a classified table.
type Summary struct {
	Packages    []*PackageSummary
	FailedTests int
	Locations   int
	// Unlocated lists failed group keys whose output named no location.
	// They produce no annotation.
	Unlocated []string
}

// Failed reports whether any test failed.
func (s *Summary) Failed() bool {
	return s != nil && s.FailedTests > 0
}

// ComputeSummary walks the failed groups of table in first-reference order.
func ComputeSummary(table *results.Table, opts diagnostics.Options) *Summary {
	summary := &Summary{}
	byName := make(map[string]*PackageSummary)
	seen := make(map[string]struct{})

	for _, g := range table.Groups() {
		if !g.Failed() {
			continue
		}
		summary.FailedTests++

		pkg, ok := byName[g.PackageName]
		if !ok {
			pkg = &PackageSummary{Name: g.PackageName}
			byName[g.PackageName] = pkg
			summary.Packages = append(summary.Packages, pkg)
		}
		pkg.FailedTests = append(pkg.FailedTests, g.Test)

		fragments := diagnostics.ExtractGroup(g, opts)
		if len(fragments) == 0 {
			summary.Unlocated = append(summary.Unlocated, g.Key)
			continue
		}
		for _, f := range fragments {
			key := f.Location.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pkg.Locations++
			summary.Locations++
		}
	}

	return summary
}

// SummaryFormatter renders a Summary as aligned terminal text.
type SummaryFormatter struct {
	width        int
	failStyle    lipgloss.Style
	passStyle    lipgloss.Style
	neutralStyle lipgloss.Style
}

// NewSummaryFormatter creates a formatter for a terminal width columns wide.
func NewSummaryFormatter(width int) *SummaryFormatter {
	if width <= 0 {
		width = 80
	}
	return &SummaryFormatter{
		width:        width,
		failStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		passStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		neutralStyle: lipgloss.NewStyle().Faint(true),
	}
}

// Format renders the package and unlocated sections followed by totals.
func (sf *SummaryFormatter) Format(s *Summary) string {
	if !s.Failed() {
		return sf.passStyle.Render(SymbolPass+" no failed tests") + "\n"
	}

	var b strings.Builder
	b.WriteString(sf.formatPackageSection(s.Packages))
	b.WriteString("\n")
	if len(s.Unlocated) > 0 {
		b.WriteString(sf.formatUnlocated(s.Unlocated))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%s %s, %s\n",
		sf.failStyle.Render(SymbolFail),
		plural(s.FailedTests, "failed test"),
		plural(s.Locations, "location")))
	return b.String()
}

func (sf *SummaryFormatter) formatPackageSection(packages []*PackageSummary) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("FAILED PACKAGES"))

	maxNameLen, maxTestsLen, maxLocLen := 0, 0, 0
	for _, pkg := range packages {
		maxNameLen = max(maxNameLen, lipgloss.Width(displayName(pkg.Name)))
		maxTestsLen = max(maxTestsLen, len(fmt.Sprint(len(pkg.FailedTests))))
		maxLocLen = max(maxLocLen, len(fmt.Sprint(pkg.Locations)))
	}

	for _, pkg := range packages {
		symbol := sf.failStyle.Render(SymbolFail)
		locations := fmt.Sprintf("@ %*d", maxLocLen, pkg.Locations)
		if pkg.Locations == 0 {
			locations = sf.neutralStyle.Render(locations)
		}
		fmt.Fprintf(&b, "%s %-*s  %s  %s\n",
			symbol,
			maxNameLen, displayName(pkg.Name),
			sf.failStyle.Render(fmt.Sprintf("%s %*d", SymbolFail, maxTestsLen, len(pkg.FailedTests))),
			locations)
		for _, test := range pkg.FailedTests {
			b.WriteString(IndentLevel1 + test + "\n")
		}
	}

	b.WriteString(sf.horizontalLine())
	return b.String()
}

func (sf *SummaryFormatter) formatUnlocated(keys []string) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("NO SOURCE LOCATION"))
	for _, key := range keys {
		b.WriteString(IndentLevel1 + sf.neutralStyle.Render(SymbolNone) + " " + key + "\n")
	}
	b.WriteString(sf.horizontalLine())
	return b.String()
}

// horizontalLine returns a horizontal separator line.
func (sf *SummaryFormatter) horizontalLine() string {
	return strings.Repeat("-", sf.width) + "\n"
}

// Markdown renders the summary as GitHub-flavored markdown, for step
// summaries and check run output.
func Markdown(s *Summary) string {
	if !s.Failed() {
		return SymbolPass + " No failed tests.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s %s, %s\n\n", SymbolFail,
		plural(s.FailedTests, "failed test"), plural(s.Locations, "location"))
	b.WriteString("| Package | Failed tests | Locations |\n")
	b.WriteString("| --- | ---: | ---: |\n")
	for _, pkg := range s.Packages {
		fmt.Fprintf(&b, "| `%s` | %d | %d |\n", displayName(pkg.Name), len(pkg.FailedTests), pkg.Locations)
	}

	if len(s.Unlocated) > 0 {
		b.WriteString("\n<details><summary>Failed tests without a source location</summary>\n\n")
		for _, key := range s.Unlocated {
			fmt.Fprintf(&b, "- `%s`\n", key)
		}
		b.WriteString("\n</details>\n")
	}
	return b.String()
}

// displayName shows a fully stripped package name as "."
func displayName(name string) string {
	if name == "" {
		return "."
	}
	return name
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func renderSectionHeader(header string) string {
	return header + "\n" + strings.Repeat("-", len(header)) + "\n"
}
