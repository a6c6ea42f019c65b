package domain

import (
	"fmt"
	"path"
	"strings"
)

// Origin identifies which storage a scan root lives on
type Origin string

const (
	// OriginPrimary is the device's fixed primary storage (SD card).
	// Its mount name is configurable on the device, so launch paths go
	// through a drive placeholder.
	OriginPrimary Origin = "fat"

	// OriginRemovable is removable storage (USB). Launch paths are absolute.
	OriginRemovable Origin = "usb"
)

// IsValid checks if the origin is a known value
func (o Origin) IsValid() bool {
	switch o {
	case OriginPrimary, OriginRemovable:
		return true
	}
	return false
}

// ParseOrigin parses an origin tag (case-insensitive).
// "sd" and "usb0" are accepted as aliases.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fat", "sd", "primary":
		return OriginPrimary, nil
	case "usb", "usb0", "removable":
		return OriginRemovable, nil
	}
	return "", fmt.Errorf("%w: unknown origin %q", ErrConfigInvalid, s)
}

// ScanRoot is one (remote root, local root, origin) triple to walk
type ScanRoot struct {
	// RemotePath is the absolute remote directory
	RemotePath string `mapstructure:"remote"`

	// LocalPath is relative to the output directory
	LocalPath string `mapstructure:"local"`

	// Origin selects the path translation policy
	Origin Origin `mapstructure:"origin"`
}

// Validate checks if the root is properly configured
func (r ScanRoot) Validate() error {
	if r.RemotePath == "" || !path.IsAbs(r.RemotePath) {
		return fmt.Errorf("%w: remote root must be absolute: %q", ErrConfigInvalid, r.RemotePath)
	}
	if !r.Origin.IsValid() {
		return fmt.Errorf("%w: root %s has invalid origin %q", ErrConfigInvalid, r.RemotePath, r.Origin)
	}
	return nil
}

// String returns a short description used in logs
func (r ScanRoot) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.RemotePath, r.LocalPath, r.Origin)
}

// LocalDir returns the output-relative directory the root is written to.
// An empty LocalPath falls back to the last element of the remote path.
func (r ScanRoot) LocalDir() string {
	if r.LocalPath == "" {
		return path.Base(r.RemotePath)
	}
	return path.Clean(strings.ReplaceAll(r.LocalPath, `\`, "/"))
}

// LocalKey identifies the output directory of the root. The generated tree
// usually lands on a case-insensitive filesystem, so case is folded.
func (r ScanRoot) LocalKey() string {
	return strings.ToLower(r.LocalDir())
}
