package logging

import (
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

var (
	// at fn (path:line:col) | at path:line:col
	frameLocation = regexp.MustCompile(`^\s*at\s+(?:.*?\()?([^\s()]+?):(\d+)(?::\d+)?\)?\s*$`)
	// dir/path.ext:line, also matches Go frames like "\t/app/x.go:42 +0x1d"
	bareLocation = regexp.MustCompile(`([^\s()]*[/\\][^\s()]*\.[A-Za-z0-9]+):(\d+)`)
)

// ErrorLocationExtractor recovers a source location from stack text alone.
// It is stateless and never looks at the live call stack.
type ErrorLocationExtractor struct {
	root   string
	goroot string
	ownDir string
}

func NewErrorLocationExtractor(projectRoot string) *ErrorLocationExtractor {
	return &ErrorLocationExtractor{
		root:   filepath.ToSlash(filepath.Clean(projectRoot)),
		goroot: filepath.ToSlash(runtime.GOROOT()),
		ownDir: packageDir,
	}
}

// Extract returns the first non-dependency location found in stack, or UnknownCaller.
func (x *ErrorLocationExtractor) Extract(stack string) CallerFrame {
	if x == nil || strings.TrimSpace(stack) == emptyString {
		return UnknownCaller
	}
	for i, line := range strings.Split(stack, "\n") {
		if i == 0 && isHeader(line) {
			continue
		}
		file, lineNo, ok := matchLocation(line)
		if !ok {
			continue
		}
		file = strings.ReplaceAll(file, `\`, "/")
		if isDependencyPath(file, x.goroot) || x.isOwnFile(file) {
			continue
		}
		if rel, inside := relativeTo(x.root, file); inside {
			file = rel
		}
		return CallerFrame{File: file, Line: lineNo}
	}
	return UnknownCaller
}

func (x *ErrorLocationExtractor) isOwnFile(file string) bool {
	if x.ownDir == emptyString || strings.HasSuffix(file, "_test.go") {
		return false
	}
	return path.Dir(file) == x.ownDir
}

// isHeader reports an unindented first line that is not a frame: the error
// message, which may itself contain host:port or file:line text.
func isHeader(line string) bool {
	if line == emptyString || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	return !strings.HasPrefix(line, "at ")
}

func matchLocation(line string) (string, int, bool) {
	for _, re := range []*regexp.Regexp{frameLocation, bareLocation} {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return m[1], n, true
	}
	return emptyString, 0, false
}
