package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	log "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// newLogger builds the diagnostic logger. Logs go to w (stderr) so that
// workflow commands on stdout stay clean.
func newLogger(w io.Writer, level string, noColor bool) (*log.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := log.New(w)
	if noColor {
		logger.SetColorProfile(termenv.Ascii)
	} else {
		logger.SetColorProfile(lipgloss.ColorProfile())
	}
	logger.SetStyles(&log.Styles{
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: levelStyle("DEBUG", "#3F51B5"),
			log.InfoLevel:  levelStyle("INFO", "#4CAF50"),
			log.WarnLevel:  levelStyle("WARN", "#FF9800"),
			log.ErrorLevel: levelStyle("ERROR", "#F44336"),
			log.FatalLevel: levelStyle("FATAL", "#F44336").Foreground(lipgloss.Color("#FFFFFF")),
		},
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Bold(true),
		Value: lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")),
	})
	logger.SetLevel(lvl)
	return logger, nil
}

func levelStyle(name, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(name).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("#000000")).
		Padding(0, 1)
}

func parseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}
