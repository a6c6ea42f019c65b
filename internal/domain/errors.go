package domain

import "errors"

// Session errors - 遠端連線層錯誤
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrConnectionFatal indicates the remote session is lost or unusable.
	// It aborts the whole run.
	ErrConnectionFatal = errors.New("remote connection failed")
)

// Walk errors - 掃描與產生錯誤
var (
	// ErrDirectoryAccessDenied indicates a remote directory could not be entered.
	// The subtree is skipped and siblings continue.
	ErrDirectoryAccessDenied = errors.New("directory access denied")

	// ErrFileWriteFailed indicates a launcher artifact could not be written.
	// Only that artifact is skipped.
	ErrFileWriteFailed = errors.New("launcher write failed")

	// ErrGenerationInProgress indicates another run holds the output lock
	ErrGenerationInProgress = errors.New("generation already in progress")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrInvalidConfiguration indicates a scan root could not be resolved.
	// It aborts the run before any walking starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsAccessError reports whether err means "cannot enter this path" as opposed
// to a broken session.
func IsAccessError(err error) bool {
	return errors.Is(err, ErrNotDirectory) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrNotFound)
}
