// Package shelltest provides an in-memory shell.Executor for tests.
package shelltest

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"codeberg.org/mutker/gpufreq/internal/errors"
)

// Executor is a fake privileged executor backed by an in-memory tree.
// Directories are implied by the files below them. Commands not
// registered with SetCommand fail.
type Executor struct {
	mu         sync.Mutex
	privileged bool
	files      map[string]string
	dirs       map[string]bool
	commands   map[string]string
	failReads  map[string]bool
	calls      []string
	onCall     func(call string)
}

// New returns a fake executor that reports privilege when privileged is true.
func New(privileged bool) *Executor {
	return &Executor{
		privileged: privileged,
		files:      make(map[string]string),
		dirs:       map[string]bool{"/": true},
		commands:   make(map[string]string),
		failReads:  make(map[string]bool),
	}
}

// SetFile creates a file and all of its parent directories.
func (e *Executor) SetFile(p, content string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()

	p = path.Clean(p)
	e.files[p] = content
	for dir := path.Dir(p); ; dir = path.Dir(dir) {
		e.dirs[dir] = true
		if dir == "/" || dir == "." {
			break
		}
	}
	return e
}

// RemoveFile deletes a file; parent directories stay.
func (e *Executor) RemoveFile(p string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.files, path.Clean(p))
}

// FailRead makes ReadFile fail for p while the file still exists, the
// way a timed-out or permission-denied cat looks to callers.
func (e *Executor) FailRead(p string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failReads[path.Clean(p)] = true
	return e
}

// OnCall installs fn to run after each recorded operation. fn must not
// call back into the executor.
func (e *Executor) OnCall(fn func(call string)) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCall = fn
	return e
}

// SetCommand registers the stdout of an arbitrary command.
func (e *Executor) SetCommand(command, stdout string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[command] = stdout
	return e
}

// Calls returns every operation seen so far, formatted as "op arg".
func (e *Executor) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// CallCount returns how many operations were seen.
func (e *Executor) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// CountCalls returns how many recorded operations start with prefix.
func (e *Executor) CountCalls(prefix string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded operations.
func (e *Executor) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *Executor) record(op string) {
	e.calls = append(e.calls, op)
	if e.onCall != nil {
		e.onCall(op)
	}
}

func (e *Executor) Run(_ context.Context, command string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("run " + command)

	out, ok := e.commands[command]
	if !ok {
		return "", errors.New().WithData(errors.ErrNonZeroExit, command)
	}
	return strings.TrimSpace(out), nil
}

func (e *Executor) HasPrivilege(_ context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("privilege")
	return e.privileged
}

func (e *Executor) FileExists(_ context.Context, p string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("exists " + p)

	p = path.Clean(p)
	_, isFile := e.files[p]
	return isFile || e.dirs[p]
}

func (e *Executor) ReadFile(_ context.Context, p string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("read " + p)

	p = path.Clean(p)
	if e.failReads[p] {
		return "", false
	}
	content, ok := e.files[p]
	return strings.TrimSpace(content), ok
}

func (e *Executor) ListDirectory(_ context.Context, p string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("list " + p)

	p = path.Clean(p)
	if !e.dirs[p] {
		return nil, false
	}

	seen := make(map[string]bool)
	collect := func(child string) {
		if path.Dir(child) == p && child != p {
			seen[path.Base(child)] = true
		}
	}
	for f := range e.files {
		collect(f)
	}
	for d := range e.dirs {
		collect(d)
	}

	entries := make([]string, 0, len(seen))
	for name := range seen {
		entries = append(entries, name)
	}
	sort.Strings(entries)
	return entries, true
}
