package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter handles progress reporting for a generation run
type Reporter interface {
	// SetTotal sets the number of scan roots to process
	SetTotal(totalRoots int)
	// StartRoot begins a scan root
	StartRoot(root string)
	// Directory reports a remote directory whose launchers are being written
	Directory(remotePath string, files int)
	// Launcher reports one written artifact
	Launcher(localPath string)
	// Skip reports a directory that produced nothing
	Skip(remotePath, reason string)
	// Error reports a non-fatal problem on path
	Error(path string, err error)
	// RootDone marks a scan root as finished
	RootDone(root string)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	Root           string
	Path           string
	Files          int
	Reason         string
	RootsCompleted int
	RootsTotal     int
	Launchers      int
	PerSecond      float64
	Error          error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateRootStart UpdateType = iota
	UpdateDirectory
	UpdateLauncher
	UpdateSkip
	UpdateError
	UpdateRootDone
)

// CallbackReporter implements Reporter with a callback function.
// It is safe for concurrent use by several walkers.
type CallbackReporter struct {
	callback       Callback
	mu             sync.Mutex
	rootsTotal     int
	rootsCompleted int
	launchers      int
	startTime      time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback:  callback,
		startTime: time.Now(),
	}
}

// SetTotal sets the total number of scan roots
func (r *CallbackReporter) SetTotal(totalRoots int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rootsTotal = totalRoots
	r.startTime = time.Now()
}

// StartRoot begins a scan root
func (r *CallbackReporter) StartRoot(root string) {
	r.emit(func(u *Update) {
		u.Type = UpdateRootStart
		u.Root = root
	})
}

// Directory reports a directory being materialized
func (r *CallbackReporter) Directory(remotePath string, files int) {
	r.emit(func(u *Update) {
		u.Type = UpdateDirectory
		u.Path = remotePath
		u.Files = files
	})
}

// Launcher reports one written artifact
func (r *CallbackReporter) Launcher(localPath string) {
	r.mu.Lock()
	r.launchers++
	r.mu.Unlock()

	r.emit(func(u *Update) {
		u.Type = UpdateLauncher
		u.Path = localPath
	})
}

// Skip reports a skipped directory
func (r *CallbackReporter) Skip(remotePath, reason string) {
	r.emit(func(u *Update) {
		u.Type = UpdateSkip
		u.Path = remotePath
		u.Reason = reason
	})
}

// Error reports a non-fatal problem
func (r *CallbackReporter) Error(path string, err error) {
	r.emit(func(u *Update) {
		u.Type = UpdateError
		u.Path = path
		u.Error = err
	})
}

// RootDone marks a scan root as finished
func (r *CallbackReporter) RootDone(root string) {
	r.mu.Lock()
	r.rootsCompleted++
	r.mu.Unlock()

	r.emit(func(u *Update) {
		u.Type = UpdateRootDone
		u.Root = root
	})
}

// emit fills the shared counters, then calls the callback outside the lock
func (r *CallbackReporter) emit(fill func(u *Update)) {
	r.mu.Lock()
	update := Update{
		RootsCompleted: r.rootsCompleted,
		RootsTotal:     r.rootsTotal,
		Launchers:      r.launchers,
	}
	if elapsed := time.Since(r.startTime).Seconds(); elapsed > 0 {
		update.PerSecond = float64(r.launchers) / elapsed
	}
	callback := r.callback
	r.mu.Unlock()

	fill(&update)

	// Call callback outside lock to prevent deadlock
	if callback != nil {
		callback(update)
	}
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) SetTotal(totalRoots int)                {}
func (NullReporter) StartRoot(root string)                  {}
func (NullReporter) Directory(remotePath string, files int) {}
func (NullReporter) Launcher(localPath string)              {}
func (NullReporter) Skip(remotePath, reason string)         {}
func (NullReporter) Error(path string, err error)           {}
func (NullReporter) RootDone(root string)                   {}

// FormatCount formats a count with thousands separators
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatRate formats launchers per second
func FormatRate(perSecond float64) string {
	return fmt.Sprintf("%s/s", humanize.FtoaWithDigits(perSecond, 1))
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
