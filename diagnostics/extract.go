package diagnostics

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/ansel1/annotate/results"
)

// locationLine matches "<anything><space><file>.go:<line>: <message>".
// The prefix is greedy, so the last file reference on the line wins.
var locationLine = regexp.MustCompile(`^.*\s+(?P<file>\S+\.go):(?P<line>\d+): (?P<message>.*\n?)$`)

var (
	fileIndex    = locationLine.SubexpIndex("file")
	lineIndex    = locationLine.SubexpIndex("line")
	messageIndex = locationLine.SubexpIndex("message")
)

// Extract produces fragments for every failed group in the table, in group
// order and, within a group, in line order. Groups that did not fail
// contribute nothing.
func Extract(table *results.Table, opts Options) []Fragment {
	fragments := make([]Fragment, 0)
	for _, g := range table.Groups() {
		if !g.Failed() {
			continue
		}
		fragments = append(fragments, ExtractGroup(g, opts)...)
	}
	return fragments
}

// ExtractGroup scans one group's output. A line carrying a location starts
// a new message there; other lines continue the message of the most recent
// location. Lines before the first location are dropped.
func ExtractGroup(g *results.Group, opts Options) []Fragment {
	var fragments []Fragment
	var current *Location

	for _, line := range g.Output {
		if loc, message, ok := parseLocation(line, g.PackageName, opts); ok {
			current = &loc
			fragments = append(fragments, Fragment{Message: message, Location: loc})
			continue
		}
		if current != nil {
			fragments = append(fragments, Fragment{Message: line, Location: *current})
		}
	}
	return fragments
}

func parseLocation(line, pkgName string, opts Options) (Location, string, bool) {
	m := locationLine.FindStringSubmatch(line)
	if m == nil {
		return Location{}, "", false
	}

	n, err := strconv.Atoi(m[lineIndex])
	if err != nil {
		return Location{}, "", false
	}
	if opts.LineBase == 0 {
		n--
	}

	return Location{File: resolveFile(m[fileIndex], pkgName, opts), Line: n}, m[messageIndex], true
}

func resolveFile(file, pkgName string, opts Options) string {
	if !opts.ResolvePaths || path.IsAbs(file) || filepath.IsAbs(file) {
		return file
	}
	return path.Join(pkgName, file)
}
