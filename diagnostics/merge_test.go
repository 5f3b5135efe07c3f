package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	a := Location{File: "pkg/a_test.go", Line: 1}
	b := Location{File: "pkg/b_test.go", Line: 2}

	merged := Merge([]Fragment{
		{Message: "a1\n", Location: a},
		{Message: "b1\n", Location: b},
		{Message: "a2\n", Location: a},
		{Message: "b2", Location: b},
		{Message: "a3\n", Location: a},
	})

	assert.Equal(t, []Diagnostic{
		{Message: "a1\na2\na3\n", Location: a},
		{Message: "b1\nb2", Location: b},
	}, merged)
}

func TestMerge_SameFileDifferentLines(t *testing.T) {
	merged := Merge([]Fragment{
		{Message: "x", Location: Location{File: "f.go", Line: 1}},
		{Message: "y", Location: Location{File: "f.go", Line: 10}},
	})
	assert.Len(t, merged, 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}

func TestMerge_AcrossGroupsFollowsGroupOrder(t *testing.T) {
	table := buildTable(t, "github.com/acme/repo/pkg",
		map[string][]string{
			"TestA": {"    helper_test.go:9: from A\n"},
			"TestB": {"    helper_test.go:9: from B\n"},
		},
		[]string{"TestB", "TestA"},
		"TestA", "TestB",
	)

	merged := Merge(Extract(table, DefaultOptions()))
	assert.Equal(t, []Diagnostic{
		{Message: "from B\nfrom A\n", Location: Location{File: "pkg/helper_test.go", Line: 9}},
	}, merged)
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "pkg/a_test.go:12", Location{File: "pkg/a_test.go", Line: 12}.Key())
	assert.Equal(t, "a.go:0", Location{File: "a.go"}.String())
}
