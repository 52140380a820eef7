package logging

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

const maxCallerDepth = 64

// packageDir is the directory holding this package's sources.
var packageDir = func() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return emptyString
	}
	return path.Dir(filepath.ToSlash(file))
}()

var dependencyMarkers = []string{"/pkg/mod/", "/vendor/", "/node_modules/"}

// CallerResolver picks the first stack frame that belongs to application code.
//
// Frames come from runtime.Callers, which is goroutine safe and touches no
// global state, so concurrent resolutions need no locking.
type CallerResolver struct {
	root   string
	goroot string
	ownDir string
}

func NewCallerResolver(projectRoot string) *CallerResolver {
	return &CallerResolver{
		root:   filepath.ToSlash(filepath.Clean(projectRoot)),
		goroot: filepath.ToSlash(runtime.GOROOT()),
		ownDir: packageDir,
	}
}

// Resolve skips the first skip frames above its caller and returns the first
// application frame, or UnknownCaller. It never panics.
func (r *CallerResolver) Resolve(skip int) (frame CallerFrame) {
	defer func() {
		if recover() != nil {
			frame = UnknownCaller
		}
	}()
	if r == nil {
		return UnknownCaller
	}

	pcs := make([]uintptr, maxCallerDepth)
	// 0 is runtime.Callers, 1 is Resolve.
	n := runtime.Callers(2, pcs)
	if n == 0 {
		return UnknownCaller
	}

	frames := runtime.CallersFrames(pcs[:n])
	captured := make([]CallerFrame, 0, n)
	for {
		f, more := frames.Next()
		captured = append(captured, CallerFrame{File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return r.selectFrame(captured, skip)
}

func (r *CallerResolver) selectFrame(frames []CallerFrame, skip int) CallerFrame {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(frames) {
		return UnknownCaller
	}
	for _, f := range frames[skip:] {
		if rel, ok := r.qualify(f.File); ok {
			return CallerFrame{File: rel, Line: f.Line}
		}
	}
	return UnknownCaller
}

// qualify returns the project-relative path of file when it is application code.
func (r *CallerResolver) qualify(file string) (string, bool) {
	if file == emptyString {
		return emptyString, false
	}
	file = filepath.ToSlash(file)
	if isDependencyPath(file, r.goroot) {
		return emptyString, false
	}
	if r.isOwnFile(file) {
		return emptyString, false
	}
	rel, ok := relativeTo(r.root, file)
	if !ok {
		return emptyString, false
	}
	if isDependencyPath("/"+rel, emptyString) {
		return emptyString, false
	}
	return rel, true
}

func (r *CallerResolver) isOwnFile(file string) bool {
	if r.ownDir == emptyString || strings.HasSuffix(file, "_test.go") {
		return false
	}
	return path.Dir(file) == r.ownDir
}

func isDependencyPath(p, goroot string) bool {
	for _, m := range dependencyMarkers {
		if strings.Contains(p, m) {
			return true
		}
	}
	return goroot != emptyString && goroot != "." && strings.HasPrefix(p, goroot+"/")
}

// relativeTo makes file relative to root. It reports false for paths outside
// root or that collapse to the root itself.
func relativeTo(root, file string) (string, bool) {
	if root == emptyString || !filepath.IsAbs(filepath.FromSlash(file)) {
		return emptyString, false
	}
	rel, err := filepath.Rel(filepath.FromSlash(root), filepath.FromSlash(file))
	if err != nil {
		return emptyString, false
	}
	rel = filepath.ToSlash(rel)
	if rel == emptyString || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return emptyString, false
	}
	return rel, true
}
