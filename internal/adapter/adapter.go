package adapter

import (
	"context"
	"io"
)

// Session is a stateful connection to the remote device's file tree.
// It has a single current directory shared by every caller, so callers that
// change it must restore it. Implementations must map protocol errors to
// domain errors:
//   - domain.ErrNotDirectory or domain.ErrPermissionDenied when a path cannot
//     be entered or listed
//   - domain.ErrConnectionFatal for anything that leaves the session unusable
type Session interface {
	// ChangeDir moves the current directory to path (absolute, or relative
	// to the current directory, ".." included)
	ChangeDir(ctx context.Context, path string) error

	// CurrentDir returns the absolute current directory
	CurrentDir(ctx context.Context) (string, error)

	// NameList returns the base names of the immediate entries of path
	NameList(ctx context.Context, path string) ([]string, error)

	// Close releases the connection
	Close() error
}

// SessionFactory opens new sessions, one per concurrent walker
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory
type SessionFactoryFunc func(ctx context.Context) (Session, error)

// Open calls f(ctx)
func (f SessionFactoryFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Output is the local tree generated artifacts are written into.
// Paths are relative to the output root and slash separated.
type Output interface {
	// Mkdir creates a directory and any necessary parents
	// No error if directory already exists
	Mkdir(ctx context.Context, path string) error

	// Write creates or overwrites a file
	// Parent directories should be created automatically
	Write(ctx context.Context, path string, r io.Reader) error

	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// Root returns the absolute output directory
	Root() string
}
