package diagnostics

import (
	"testing"

	"github.com/ansel1/annotate/engine"
	"github.com/ansel1/annotate/parser"
	"github.com/ansel1/annotate/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// buildTable pushes output lines for each test in order, then marks the
// listed tests as failed.
func buildTable(t *testing.T, pkg string, lines map[string][]string, order []string, failed ...string) *results.Table {
	t.Helper()
	c := results.NewCollector()
	for _, test := range order {
		for _, line := range lines[test] {
			require.NoError(t, c.Push(engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{
				Action: "output", Package: pkg, Test: strPtr(test), Output: strPtr(line),
			}}))
		}
	}
	for _, test := range failed {
		require.NoError(t, c.Push(engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{
			Action: "fail", Package: pkg, Test: strPtr(test),
		}}))
	}
	require.NoError(t, c.Push(engine.Event{Type: engine.EventComplete}))
	return c.Table()
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		opts    Options
		wantOK  bool
		wantLoc Location
		wantMsg string
	}{
		{
			name:    "indented testing.T log",
			line:    "    main_test.go:42: expected 1 got 2\n",
			opts:    DefaultOptions(),
			wantOK:  true,
			wantLoc: Location{File: "pkg/main_test.go", Line: 42},
			wantMsg: "expected 1 got 2\n",
		},
		{
			name:    "zero-based lines",
			line:    "    main_test.go:42: expected 1 got 2\n",
			opts:    Options{LineBase: 0, ResolvePaths: true},
			wantOK:  true,
			wantLoc: Location{File: "pkg/main_test.go", Line: 41},
			wantMsg: "expected 1 got 2\n",
		},
		{
			name:    "paths left as printed",
			line:    "    main_test.go:42: expected\n",
			opts:    Options{LineBase: 1, ResolvePaths: false},
			wantOK:  true,
			wantLoc: Location{File: "main_test.go", Line: 42},
			wantMsg: "expected\n",
		},
		{
			name:    "absolute path is not joined",
			line:    "\t/src/repo/pkg/main_test.go:7: boom\n",
			opts:    DefaultOptions(),
			wantOK:  true,
			wantLoc: Location{File: "/src/repo/pkg/main_test.go", Line: 7},
			wantMsg: "boom\n",
		},
		{
			name:    "last reference on the line wins",
			line:    "    a_test.go:1: see b.go:20: nested\n",
			opts:    DefaultOptions(),
			wantOK:  true,
			wantLoc: Location{File: "pkg/b.go", Line: 20},
			wantMsg: "nested\n",
		},
		{
			name:    "message without newline",
			line:    "    a_test.go:3: tail",
			opts:    DefaultOptions(),
			wantOK:  true,
			wantLoc: Location{File: "pkg/a_test.go", Line: 3},
			wantMsg: "tail",
		},
		{
			name:    "empty message",
			line:    "    a_test.go:3: \n",
			opts:    DefaultOptions(),
			wantOK:  true,
			wantLoc: Location{File: "pkg/a_test.go", Line: 3},
			wantMsg: "\n",
		},
		{name: "no leading whitespace", line: "a_test.go:3: boom\n", opts: DefaultOptions()},
		{name: "not a go file", line: "    a_test.py:3: boom\n", opts: DefaultOptions()},
		{name: "missing space after colon", line: "    a_test.go:3:boom\n", opts: DefaultOptions()},
		{name: "column reference", line: "    a_test.go:3:4 boom\n", opts: DefaultOptions()},
		{name: "plain text", line: "additional context\n", opts: DefaultOptions()},
		{name: "line number overflows", line: "    a_test.go:99999999999999999999999: boom\n", opts: DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, msg, ok := parseLocation(tt.line, "pkg", tt.opts)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantLoc, loc)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestResolveFile_EmptyPackage(t *testing.T) {
	assert.Equal(t, "main_test.go", resolveFile("main_test.go", "", DefaultOptions()))
	assert.Equal(t, "sub/main_test.go", resolveFile("./main_test.go", "sub", DefaultOptions()))
}

func TestExtractGroup_CarriesLocationForward(t *testing.T) {
	g := &results.Group{
		PackageName: "pkg",
		Status:      results.StatusFail,
		Output: []string{
			"preamble that cannot be attributed\n",
			"    main_test.go:10: first\n",
			"        more about first\n",
			"    main_test.go:20: second\n",
			"        more about second\n",
		},
	}

	fragments := ExtractGroup(g, DefaultOptions())

	assert.Equal(t, []Fragment{
		{Message: "first\n", Location: Location{File: "pkg/main_test.go", Line: 10}},
		{Message: "        more about first\n", Location: Location{File: "pkg/main_test.go", Line: 10}},
		{Message: "second\n", Location: Location{File: "pkg/main_test.go", Line: 20}},
		{Message: "        more about second\n", Location: Location{File: "pkg/main_test.go", Line: 20}},
	}, fragments)
}

func TestExtract_OnlyFailedGroups(t *testing.T) {
	table := buildTable(t, "github.com/acme/repo/pkg",
		map[string][]string{
			"TestPass": {"    a_test.go:1: logged but passed\n"},
			"TestFail": {"    a_test.go:2: broke\n"},
		},
		[]string{"TestPass", "TestFail"},
		"TestFail",
	)

	fragments := Extract(table, DefaultOptions())
	assert.Equal(t, []Fragment{
		{Message: "broke\n", Location: Location{File: "pkg/a_test.go", Line: 2}},
	}, fragments)
}

func TestExtract_CursorResetsBetweenGroups(t *testing.T) {
	table := buildTable(t, "github.com/acme/repo/pkg",
		map[string][]string{
			"TestA": {"    a_test.go:1: in A\n"},
			"TestB": {"continuation that must not leak into A\n", "    b_test.go:5: in B\n"},
		},
		[]string{"TestA", "TestB"},
		"TestA", "TestB",
	)

	fragments := Extract(table, DefaultOptions())
	assert.Equal(t, []Fragment{
		{Message: "in A\n", Location: Location{File: "pkg/a_test.go", Line: 1}},
		{Message: "in B\n", Location: Location{File: "pkg/b_test.go", Line: 5}},
	}, fragments)
}

func TestExtract_FailedGroupWithoutLocations(t *testing.T) {
	table := buildTable(t, "github.com/acme/repo/pkg",
		map[string][]string{"TestA": {"panic: something\n", "goroutine 1 [running]:\n"}},
		[]string{"TestA"},
		"TestA",
	)

	assert.Empty(t, Extract(table, DefaultOptions()))
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.NoError(t, Options{LineBase: 0}.Validate())
	assert.ErrorIs(t, Options{LineBase: 2}.Validate(), ErrInvalidLineBase)
}
