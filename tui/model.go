package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ansel1/annotate/results"
)

// ResultsEventMsg wraps collector events for bubbletea
type ResultsEventMsg results.Event

// EOFMsg signals that the input has been fully classified
type EOFMsg struct{}

// ErrorMsg signals that classification stopped with an error
type ErrorMsg struct{ Err error }

// maxRecentFailures is how many failed test keys the view lists.
const maxRecentFailures = 5

// Model shows classification progress while test results are read.
type Model struct {
	Stats          results.Stats
	RecentFailures []string // Most recent failed group keys, oldest first
	Finished       bool     // True once the stream completed
	Interrupted    bool     // True if the user quit early
	Err            error
	StartTime      time.Time
	Elapsed        time.Duration

	TerminalWidth int

	spinner      spinner.Model
	failStyle    lipgloss.Style
	passStyle    lipgloss.Style
	neutralStyle lipgloss.Style
}

// NewModel creates a new progress model
func NewModel() *Model {
	s := spinner.New()
	s.Spinner = spinner.Jump

	return &Model{
		RecentFailures: make([]string, 0, maxRecentFailures),
		StartTime:      time.Now(),
		TerminalWidth:  80, // Default width, will be updated by Bubbletea
		spinner:        s,
		failStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		passStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		neutralStyle:   lipgloss.NewStyle().Faint(true),
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultsEventMsg:
		m.handleResultsEvent(results.Event(msg))

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width

	case EOFMsg:
		m.Finished = true
		m.Elapsed = time.Since(m.StartTime)
		return m, tea.Quit

	case ErrorMsg:
		m.Err = msg.Err
		m.Elapsed = time.Since(m.StartTime)
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Interrupted = true
			m.Elapsed = time.Since(m.StartTime)
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleResultsEvent(evt results.Event) {
	m.Stats = evt.Stats

	if evt.Type == results.EventGroupFailed {
		if len(m.RecentFailures) == maxRecentFailures {
			m.RecentFailures = m.RecentFailures[1:]
		}
		m.RecentFailures = append(m.RecentFailures, evt.Key)
	}
}

// View renders the progress display
func (m *Model) View() string {
	var b strings.Builder

	counts := fmt.Sprintf("%d records  %d tests  %s",
		m.Stats.Records,
		m.Stats.Groups,
		m.failedText())

	switch {
	case m.Err != nil:
		b.WriteString(m.failStyle.Render("✗ ") + counts + "\n")
	case m.Finished:
		b.WriteString(m.passStyle.Render("✓ ") + counts + m.neutralStyle.Render(" in "+formatElapsed(m.Elapsed)) + "\n")
	default:
		b.WriteString(m.spinner.View() + " Reading test results  " + counts + "\n")
	}

	for _, key := range m.RecentFailures {
		b.WriteString("  " + m.failStyle.Render("✗") + " " + truncate(key, m.TerminalWidth-4) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) failedText() string {
	text := fmt.Sprintf("%d failed", m.Stats.Failed)
	if m.Stats.Failed > 0 {
		return m.failStyle.Render(text)
	}
	return text
}

// formatElapsed formats as X.Xs for <60s, X.Xm otherwise
func formatElapsed(d time.Duration) string {
	seconds := d.Seconds()
	if seconds >= 60 {
		return fmt.Sprintf("%.1fm", seconds/60)
	}
	return fmt.Sprintf("%.1fs", seconds)
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}
