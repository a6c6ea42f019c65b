package translate

import (
	"strings"

	"github.com/Ning0612/mistergen/internal/domain"
)

const (
	// DefaultPrimaryPrefix is where the device mounts its SD card
	DefaultPrimaryPrefix = "/media/fat/"
	// DefaultMountBase is the parent of every storage mount on the device
	DefaultMountBase = "/media/"
	// DefaultDriveToken is expanded by the dispatcher at launch time
	DefaultDriveToken = "%MISTERDRIVE%"
)

// Translator maps remote game paths to the path embedded in a launch command.
// It is pure: no filesystem or network access.
type Translator struct {
	primaryPrefix string
	mountBase     string
	driveToken    string
}

// Options configures a Translator. Zero values use the defaults.
type Options struct {
	PrimaryPrefix string
	MountBase     string
	DriveToken    string
}

// New creates a translator
func New(opts Options) *Translator {
	t := &Translator{
		primaryPrefix: opts.PrimaryPrefix,
		mountBase:     opts.MountBase,
		driveToken:    opts.DriveToken,
	}
	if t.primaryPrefix == "" {
		t.primaryPrefix = DefaultPrimaryPrefix
	}
	if t.mountBase == "" {
		t.mountBase = DefaultMountBase
	}
	if !strings.HasSuffix(t.mountBase, "/") {
		t.mountBase += "/"
	}
	if t.driveToken == "" {
		t.driveToken = DefaultDriveToken
	}
	return t
}

// NewDefault creates a translator for a stock device layout
func NewDefault() *Translator {
	return New(Options{})
}

// Translate returns the launch path for remotePath.
//
// Removable storage paths are returned unchanged. Primary storage paths lose
// the first occurrence of the primary prefix and are rebuilt under the drive
// token, e.g. /media/fat/games/NES/a.nes -> /media/%MISTERDRIVE%/games/NES/a.nes.
func (t *Translator) Translate(remotePath string, origin domain.Origin) string {
	if origin == domain.OriginRemovable {
		return remotePath
	}

	var remainder string
	if i := strings.Index(remotePath, t.primaryPrefix); i >= 0 {
		remainder = remotePath[:i] + remotePath[i+len(t.primaryPrefix):]
	} else {
		remainder = remotePath
	}
	remainder = strings.TrimPrefix(remainder, "/")

	return t.mountBase + t.driveToken + "/" + remainder
}

// DriveToken returns the placeholder used for the primary storage mount name
func (t *Translator) DriveToken() string {
	return t.driveToken
}
