package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	teatest "github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/results"
)

func TestModel_CountsAndFailures(t *testing.T) {
	m := NewModel()

	m.Update(ResultsEventMsg(results.NewGroupStartedEvent("pkg/TestA", results.Stats{Records: 1, Groups: 1})))
	m.Update(ResultsEventMsg(results.NewGroupFailedEvent("pkg/TestA", results.Stats{Records: 2, Groups: 1, Failed: 1})))

	assert.Equal(t, 1, m.Stats.Failed)
	assert.Equal(t, []string{"pkg/TestA"}, m.RecentFailures)

	view := m.View()
	assert.Contains(t, view, "Reading test results")
	assert.Contains(t, view, "2 records")
	assert.Contains(t, view, "1 tests")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "pkg/TestA")
}

func TestModel_RecentFailuresAreBounded(t *testing.T) {
	m := NewModel()
	for i := 0; i < maxRecentFailures+2; i++ {
		key := "pkg/Test" + string(rune('A'+i))
		m.Update(ResultsEventMsg(results.NewGroupFailedEvent(key, results.Stats{Failed: i + 1})))
	}

	require.Len(t, m.RecentFailures, maxRecentFailures)
	assert.Equal(t, "pkg/TestC", m.RecentFailures[0])
	assert.Equal(t, "pkg/TestG", m.RecentFailures[maxRecentFailures-1])
}

func TestModel_EOFQuits(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(EOFMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.Finished)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "✓")
}

func TestModel_ErrorQuits(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(ErrorMsg{Err: errors.New("bad line")})
	require.NotNil(t, cmd)
	assert.Error(t, m.Err)
	assert.Contains(t, m.View(), "✗")
}

func TestModel_KeyQuits(t *testing.T) {
	m := NewModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, m.Interrupted)
}

func TestModel_Teatest(t *testing.T) {
	m := NewModel()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Send(ResultsEventMsg(results.NewGroupStartedEvent("pkg/TestFoo", results.Stats{Records: 3, Groups: 1})))
	tm.Send(ResultsEventMsg(results.NewGroupFailedEvent("pkg/TestFoo", results.Stats{Records: 4, Groups: 1, Failed: 1})))

	teatest.WaitFor(
		t,
		tm.Output(),
		func(bts []byte) bool {
			return strings.Contains(string(bts), "pkg/TestFoo")
		},
		teatest.WithDuration(time.Second),
		teatest.WithCheckInterval(50*time.Millisecond),
	)

	tm.Send(EOFMsg{})
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	assert.True(t, final.Finished)
	assert.Equal(t, 4, final.Stats.Records)
}

func TestWatch(t *testing.T) {
	input := `{"Action":"output","Package":"github.com/acme/repo/pkg","Test":"TestFoo","Output":"    foo_test.go:1: boom\n"}
{"Action":"fail","Package":"github.com/acme/repo/pkg","Test":"TestFoo"}`

	c := results.NewCollector()
	table, err := Watch(context.Background(), engine.NewEngine().Stream(context.Background(), strings.NewReader(input)), c,
		tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, table)

	g, ok := table.Get("pkg/TestFoo")
	require.True(t, ok)
	assert.True(t, g.Failed())
}

func TestWatch_Error(t *testing.T) {
	c := results.NewCollector()
	_, err := Watch(context.Background(), engine.NewEngine().Stream(context.Background(), strings.NewReader("{")), c,
		tea.WithInput(nil), tea.WithOutput(io.Discard))
	assert.ErrorIs(t, err, engine.ErrMalformedRecord)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0.5s", formatElapsed(500*time.Millisecond))
	assert.Equal(t, "1.5m", formatElapsed(90*time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
