package domain

import "path"

// EntryKind represents the type of a remote entry
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDirectory
)

// String returns the string representation of the kind
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// RemoteEntry is one name returned by a remote listing.
// Kind is only meaningful after classification.
type RemoteEntry struct {
	// Name is the base name as listed
	Name string

	// ParentPath is the absolute remote directory holding the entry
	ParentPath string

	// Kind is determined by probing, never by the listing
	Kind EntryKind
}

// Path returns the absolute remote path of the entry
func (e RemoteEntry) Path() string {
	return JoinRemote(e.ParentPath, e.Name)
}

// IsDir returns true if this is a directory
func (e RemoteEntry) IsDir() bool {
	return e.Kind == EntryDirectory
}

// GeneratedLauncher is one local artifact written for a remote game file
type GeneratedLauncher struct {
	// LocalPath is relative to the output root, slash separated
	LocalPath string

	// RemotePath is the absolute remote game file path
	RemotePath string

	// Content is the rendered command line
	Content string
}

// JoinRemote joins remote path elements with forward slashes.
// Remote paths are always slash separated regardless of the local OS.
func JoinRemote(elem ...string) string {
	return path.Join(elem...)
}
