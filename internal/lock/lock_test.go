package lock

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/testutil"
)

func writeLockFile(t *testing.T, l *FileLock, info *LockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal lock info: %v", err)
	}
	if err := os.WriteFile(l.lockPath, data, 0644); err != nil {
		t.Fatalf("write lock file: %v", err)
	}
}

func TestNewFileLock(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	outputDir := filepath.Join(dir, "launchers")
	lock, err := NewFileLock(outputDir)
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if lock.Path() != filepath.Join(outputDir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}
	if lock.staleTimeout != DefaultStaleTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultStaleTimeout, lock.staleTimeout)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestNewFileLock_EmptyDir(t *testing.T) {
	_, err := NewFileLock("")
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestAcquireRelease(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, err := NewFileLock(dir)
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if err := lock.Acquire("run-1", []string{"/media/fat/games/NES"}); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !lock.IsLocked() {
		t.Error("lock should be held")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Error("lock file still exists after release")
	}
	if lock.IsLocked() {
		t.Error("lock should not be held after release")
	}

	// Release without holding is a no-op
	if err := lock.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestAcquireTwice_SameInstance(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	if err := lock.Acquire("run-1", nil); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	if err := lock.Acquire("run-2", nil); !IsLockError(err) {
		t.Errorf("expected LockError on re-acquire, got %v", err)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	const goroutines = 10
	var wg sync.WaitGroup
	start := make(chan struct{})
	acquired := make([]bool, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			lock, err := NewFileLock(dir)
			if err != nil {
				errs[idx] = err
				return
			}

			<-start
			if err := lock.Acquire(uuid.NewString(), nil); err != nil {
				errs[idx] = err
				return
			}
			acquired[idx] = true
		}(i)
	}

	close(start)
	wg.Wait()

	acquireCount := 0
	lockErrorCount := 0
	for i := 0; i < goroutines; i++ {
		if acquired[i] {
			acquireCount++
		}
		if errs[i] != nil && IsLockError(errs[i]) {
			lockErrorCount++
		}
	}

	if acquireCount != 1 {
		t.Errorf("expected exactly 1 acquire, got %d", acquireCount)
	}
	if lockErrorCount != goroutines-1 {
		t.Errorf("expected %d lock errors, got %d", goroutines-1, lockErrorCount)
	}
}

func TestGetHolder(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)

	if _, err := lock.GetHolder(); err == nil {
		t.Error("expected error when no lock is held")
	}

	runID := uuid.NewString()
	roots := []string{"/media/fat/games/SNES", "/media/fat/_Arcade"}
	if err := lock.Acquire(runID, roots); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	holder, err := lock.GetHolder()
	if err != nil {
		t.Fatalf("GetHolder failed: %v", err)
	}
	if holder.PID != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), holder.PID)
	}
	if holder.RunID != runID {
		t.Errorf("expected run id %s, got %s", runID, holder.RunID)
	}
	if len(holder.Roots) != 2 || holder.Roots[1] != "/media/fat/_Arcade" {
		t.Errorf("unexpected roots %v", holder.Roots)
	}
	if time.Since(holder.StartTime) > time.Second {
		t.Error("start time should be recent")
	}
}

func TestForceRelease(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	lock.Acquire("run-1", nil)

	if err := lock.ForceRelease(); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if lock.IsLocked() {
		t.Error("lock should not be held after force release")
	}
}

func TestRelease_TakenOver(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	if err := lock.Acquire("run-1", nil); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	hostname, _ := os.Hostname()
	writeLockFile(t, lock, &LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		RunID:     "run-2",
	})

	err := lock.Release()
	if err == nil || !strings.Contains(err.Error(), "run-2") {
		t.Errorf("expected takeover error naming run-2, got %v", err)
	}
	if _, statErr := os.Stat(lock.Path()); statErr != nil {
		t.Error("foreign lock file must not be removed")
	}
}

func TestStaleDetection_ProcessDead(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)

	hostname, _ := os.Hostname()
	writeLockFile(t, lock, &LockInfo{
		PID:       999999, // Unlikely to exist
		Hostname:  hostname,
		StartTime: time.Now().Add(-time.Hour),
		RunID:     "crashed",
	})

	if err := lock.Acquire("run-1", nil); err != nil {
		t.Fatalf("should acquire stale lock: %v", err)
	}
	defer lock.Release()

	holder, err := lock.GetHolder()
	if err != nil {
		t.Fatalf("GetHolder failed: %v", err)
	}
	if holder.RunID != "run-1" {
		t.Errorf("expected run-1 to hold the lock, got %s", holder.RunID)
	}
}

func TestStaleDetection_LongRunning(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	lock.SetStaleTimeout(50 * time.Millisecond)

	if err := lock.Acquire("long-running", nil); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	time.Sleep(100 * time.Millisecond)

	// Process is alive so the timeout does not apply
	if !lock.IsLocked() {
		t.Error("long-running lock should not be considered stale")
	}

	lock2, _ := NewFileLock(dir)
	err := lock2.Acquire("competing", nil)
	if !IsLockError(err) {
		t.Errorf("expected LockError, got: %v", err)
	}
}

func TestStaleDetection_DifferentHost(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	lock.SetStaleTimeout(100 * time.Millisecond)

	writeLockFile(t, lock, &LockInfo{
		PID:       12345,
		Hostname:  "foreign-host-" + uuid.NewString(),
		StartTime: time.Now().Add(-time.Hour),
		RunID:     "foreign",
	})

	if err := lock.Acquire("local", nil); err != nil {
		t.Fatalf("should acquire stale foreign lock: %v", err)
	}
	defer lock.Release()
}

func TestStaleDetection_DifferentHostFresh(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)

	writeLockFile(t, lock, &LockInfo{
		PID:       12345,
		Hostname:  "foreign-host-" + uuid.NewString(),
		StartTime: time.Now(),
		RunID:     "foreign",
	})

	if err := lock.Acquire("local", nil); !IsLockError(err) {
		t.Errorf("fresh foreign lock must be honored, got %v", err)
	}
}

func TestCorruptLockFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	if err := os.WriteFile(lock.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := lock.Acquire("run-1", nil); !IsLockError(err) {
		t.Errorf("expected LockError for unreadable lock, got %v", err)
	}
	if lock.IsLocked() {
		t.Error("unreadable lock should not report as held")
	}
}

func TestLockError(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock1, _ := NewFileLock(dir)
	lock2, _ := NewFileLock(dir)

	lock1.Acquire("first", nil)
	defer lock1.Release()

	err := lock2.Acquire("second", nil)
	if err == nil {
		t.Fatal("expected error when lock is held")
	}
	if !IsLockError(err) {
		t.Errorf("expected LockError, got: %T", err)
	}
	if !errors.Is(err, domain.ErrGenerationInProgress) {
		t.Errorf("LockError should match ErrGenerationInProgress")
	}
	if !strings.Contains(err.Error(), "run first") {
		t.Errorf("error should name the holder run: %s", err)
	}
}

func TestSetStaleTimeout(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	lock, _ := NewFileLock(dir)
	lock.SetStaleTimeout(5 * time.Minute)

	if lock.staleTimeout != 5*time.Minute {
		t.Errorf("expected timeout %v, got %v", 5*time.Minute, lock.staleTimeout)
	}
}

func TestProcessExists(t *testing.T) {
	if !processExists(os.Getpid()) {
		t.Error("current process should exist")
	}
	if processExists(0) || processExists(-1) {
		t.Error("non-positive PIDs never exist")
	}
}
