package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ning0612/mistergen/internal/domain"
)

// tempSuffix marks in-flight writes
const tempSuffix = ".mistergen.tmp"

// Adapter implements the adapter.Output interface for the local filesystem
type Adapter struct {
	root string
}

// New creates a new local output adapter
// root is created if it does not exist yet
func New(root string) (*Adapter, error) {
	// Convert to absolute path
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, mapError(err)
	}

	// Verify root is a directory
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	return &Adapter{root: absRoot}, nil
}

// resolvePath safely resolves a relative path to absolute path within root
// Returns error if path attempts to escape root directory
func (a *Adapter) resolvePath(relPath string) (string, error) {
	return resolveWithin(a.root, relPath)
}

// resolveWithin joins relPath onto root and rejects anything escaping root
func resolveWithin(root, relPath string) (string, error) {
	// Handle empty path as root
	if relPath == "" || relPath == "." {
		return root, nil
	}

	relPath = filepath.Clean(filepath.FromSlash(relPath))

	// Reject absolute paths
	if filepath.IsAbs(relPath) {
		return "", domain.ErrPermissionDenied
	}

	fullPath := filepath.Join(root, relPath)

	// Use filepath.Rel to safely verify the path is within root
	// This handles edge cases like root="C:\root" and fullPath="C:\root2"
	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		return "", domain.ErrPermissionDenied
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrPermissionDenied
	}

	return fullPath, nil
}

// Mkdir creates a directory and any necessary parents
func (a *Adapter) Mkdir(ctx context.Context, path string) error {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return err
	}

	return mapError(os.MkdirAll(fullPath, 0755))
}

// Write creates or overwrites a file
func (a *Adapter) Write(ctx context.Context, path string, r io.Reader) error {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return err
	}

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return mapError(err)
	}

	// Write to temp file first so a reader never sees a half written launcher
	tempPath := fullPath + tempSuffix
	file, err := os.Create(tempPath)
	if err != nil {
		return mapError(err)
	}

	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()

	if copyErr != nil {
		os.Remove(tempPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return mapError(err)
	}

	return nil
}

// Exists checks if a path exists
func (a *Adapter) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// mapError converts OS errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if os.IsPermission(err) {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}

	return err
}
