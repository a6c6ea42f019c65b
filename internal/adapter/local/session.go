package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/Ning0612/mistergen/internal/domain"
)

// Session implements adapter.Session over a locally mounted copy of the
// device storage, e.g. an SD card in a card reader.
// Remote paths under remoteBase are served from mountDir.
type Session struct {
	mountDir   string
	remoteBase string
	cwd        string
}

// NewSession creates a session serving remoteBase (e.g. "/media/fat") from mountDir
func NewSession(mountDir, remoteBase string) (*Session, error) {
	absMount, err := filepath.Abs(mountDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absMount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidConfiguration, absMount)
	}

	base := path.Clean("/" + strings.TrimPrefix(filepath.ToSlash(remoteBase), "/"))

	return &Session{
		mountDir:   absMount,
		remoteBase: base,
		cwd:        base,
	}, nil
}

// toLocal maps an absolute remote path onto the mount directory
func (s *Session) toLocal(remote string) (string, error) {
	if remote == s.remoteBase {
		return s.mountDir, nil
	}
	prefix := strings.TrimSuffix(s.remoteBase, "/") + "/"
	if !strings.HasPrefix(remote, prefix) {
		return "", fmt.Errorf("%w: %s is outside %s", domain.ErrPermissionDenied, remote, s.remoteBase)
	}
	return resolveWithin(s.mountDir, strings.TrimPrefix(remote, prefix))
}

// abs resolves p against the current directory
func (s *Session) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(s.cwd, p)
}

// ChangeDir moves the current directory to p
func (s *Session) ChangeDir(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.abs(p)
	full, err := s.toLocal(target)
	if err != nil {
		return err
	}

	info, err := os.Stat(full)
	if err != nil {
		return mapSessionError(err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, target)
	}

	s.cwd = target
	return nil
}

// CurrentDir returns the current remote directory
func (s *Session) CurrentDir(ctx context.Context) (string, error) {
	return s.cwd, nil
}

// NameList returns entry names of p sorted by name
func (s *Session) NameList(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := s.toLocal(s.abs(p))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapSessionError(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Close releases any resources (no-op for local session)
func (s *Session) Close() error {
	return nil
}

// mapSessionError converts OS errors to the session error contract.
// Only "cannot enter" errors stay recoverable; anything else (I/O errors on a
// failing card) is fatal.
func mapSessionError(err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	case isNotDirError(err):
		return fmt.Errorf("%w: %v", domain.ErrNotDirectory, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrConnectionFatal, err)
}

func isNotDirError(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
