package results

import "strings"

// StatusFail marks a group for which a "fail" action was observed.
const StatusFail = "FAIL"

// DefaultStripSegments is the number of leading Package path segments
// dropped when deriving a package name (host/owner/repo).
const DefaultStripSegments = 3

// Group holds the captured output and status for one (package, test) pair.
//
// Output is append-only and kept in arrival order.
type Group struct {
	Key         string   // packageName + "/" + test
	PackageName string   // Package with the leading segments stripped
	Test        string   // Test name as reported by go test
	Output      []string // Output lines, newline-terminated as received
	Status      string   // "" or StatusFail
}

// Failed reports whether a fail action was recorded for the group.
func (g *Group) Failed() bool {
	return g.Status == StatusFail
}

// Table maps group keys to groups and remembers the order in which keys
// were first referenced.
type Table struct {
	groups map[string]*Group
	order  []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		groups: make(map[string]*Group),
		order:  make([]string, 0),
	}
}

// Get returns the group for key, if any.
func (t *Table) Get(key string) (*Group, bool) {
	g, ok := t.groups[key]
	return g, ok
}

// Len returns the number of groups.
func (t *Table) Len() int {
	return len(t.order)
}

// Groups returns all groups in first-reference order.
func (t *Table) Groups() []*Group {
	groups := make([]*Group, 0, len(t.order))
	for _, key := range t.order {
		groups = append(groups, t.groups[key])
	}
	return groups
}

// group returns the group for key, creating it on first reference.
func (t *Table) group(key, pkgName, test string) (*Group, bool) {
	if g, ok := t.groups[key]; ok {
		return g, false
	}
	g := &Group{
		Key:         key,
		PackageName: pkgName,
		Test:        test,
		Output:      make([]string, 0),
	}
	t.groups[key] = g
	t.order = append(t.order, key)
	return g, true
}

// PackageName strips the first n slash-separated segments from an import
// path, e.g. "github.com/acme/repo/internal/x" -> "internal/x" for n=3.
// Paths with n or fewer segments yield "".
func PackageName(pkg string, n int) string {
	parts := strings.Split(pkg, "/")
	if n >= len(parts) {
		return ""
	}
	if n < 0 {
		n = 0
	}
	return strings.Join(parts[n:], "/")
}

// GroupKey returns the table key for a test in a package.
func GroupKey(pkgName, test string) string {
	return pkgName + "/" + test
}

// Stats counts what the collector has seen so far.
type Stats struct {
	Records   int // Records pushed
	Groups    int // Distinct (package, test) groups
	Failed    int // Groups marked FAIL
	Lines     int // Output lines kept
	Discarded int // Boilerplate output lines dropped
}
