package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/results"
)

// ErrInterrupted is returned when the user quits the progress display.
var ErrInterrupted = errors.New("interrupted")

// Watch classifies events with c while a progress display runs.
//
// The collector is driven from a single goroutine; the table is returned
// only after that goroutine observed the end of the stream. Canceling ctx
// stops classification and closes the display.
func Watch(ctx context.Context, events <-chan engine.Event, c *results.Collector, opts ...tea.ProgramOption) (*results.Table, error) {
	p := tea.NewProgram(NewModel(), opts...)
	c.SetListener(func(evt results.Event) {
		p.Send(ResultsEventMsg(evt))
	})

	var (
		table      *results.Table
		consumeErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		table, consumeErr = c.Consume(ctx, events)
		if consumeErr != nil {
			p.Send(ErrorMsg{Err: consumeErr})
			return
		}
		p.Send(EOFMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := finalModel.(*Model); ok && m.Interrupted {
		return nil, ErrInterrupted
	}

	<-done
	return table, consumeErr
}
