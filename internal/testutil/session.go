package testutil

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/Ning0612/mistergen/internal/domain"
)

// MemSession is an in-memory adapter.Session that behaves like an FTP
// server: one shared working directory, CWD refused on files, and a record
// of every call.
type MemSession struct {
	mu       sync.Mutex
	children map[string][]string
	files    map[string]bool
	denied   map[string]bool
	noList   map[string]bool
	failures map[string]error
	cwd      string
	closed   bool

	// ChangeDirCalls records the absolute target of every ChangeDir
	ChangeDirCalls []string
	// ListCalls records the absolute target of every NameList
	ListCalls []string
}

// NewMemSession builds a tree from absolute paths. A path ending in "/" is
// an (empty) directory, anything else is a file. Parents are implied.
// Children keep insertion order.
func NewMemSession(paths ...string) *MemSession {
	m := &MemSession{
		children: map[string][]string{"/": nil},
		files:    make(map[string]bool),
		denied:   make(map[string]bool),
		noList:   make(map[string]bool),
		failures: make(map[string]error),
		cwd:      "/",
	}
	for _, p := range paths {
		m.Add(p)
	}
	return m
}

// Add inserts a file or, with a trailing slash, a directory
func (m *MemSession) Add(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	isDir := strings.HasSuffix(p, "/")
	clean := path.Clean("/" + p)
	if isDir {
		m.ensureDir(clean)
		return
	}
	m.ensureDir(path.Dir(clean))
	if !m.files[clean] {
		m.files[clean] = true
		parent := path.Dir(clean)
		m.children[parent] = append(m.children[parent], path.Base(clean))
	}
}

func (m *MemSession) ensureDir(dir string) {
	if _, ok := m.children[dir]; ok {
		return
	}
	parent := path.Dir(dir)
	m.ensureDir(parent)
	m.children[dir] = nil
	m.children[parent] = append(m.children[parent], path.Base(dir))
}

// Deny makes ChangeDir and NameList on dir fail with a permission error
func (m *MemSession) Deny(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[path.Clean(dir)] = true
}

// DenyList makes only NameList on dir fail with a permission error
func (m *MemSession) DenyList(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noList[path.Clean(dir)] = true
}

// FailOn makes ChangeDir to p return err
func (m *MemSession) FailOn(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path.Clean(p)] = err
}

func (m *MemSession) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(m.cwd, p)
}

// ChangeDir implements adapter.Session
func (m *MemSession) ChangeDir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.abs(p)
	m.ChangeDirCalls = append(m.ChangeDirCalls, target)

	if err, ok := m.failures[target]; ok {
		return err
	}
	if m.denied[target] {
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, target)
	}
	if _, ok := m.children[target]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, target)
	}
	m.cwd = target
	return nil
}

// CurrentDir implements adapter.Session
func (m *MemSession) CurrentDir(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cwd, nil
}

// NameList implements adapter.Session
func (m *MemSession) NameList(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.abs(p)
	m.ListCalls = append(m.ListCalls, target)

	if m.denied[target] || m.noList[target] {
		return nil, fmt.Errorf("%w: %s", domain.ErrPermissionDenied, target)
	}
	names, ok := m.children[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotDirectory, target)
	}
	return append([]string(nil), names...), nil
}

// Close implements adapter.Session
func (m *MemSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MemSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Cwd returns the working directory without recording a call
func (m *MemSession) Cwd() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cwd
}

// ChangeDirsUnder counts ChangeDir calls strictly below dir
func (m *MemSession) ChangeDirsUnder(dir string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(path.Clean(dir), "/") + "/"
	n := 0
	for _, c := range m.ChangeDirCalls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
