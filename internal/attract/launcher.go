package attract

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Launcher starts one generated launcher
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// ScriptLauncher runs a launcher through the dispatcher script in Dir,
// the same way a double click on the launcher would
type ScriptLauncher struct {
	Dir        string
	Dispatcher string
}

// Launch starts the dispatcher without waiting for it to finish
func (l ScriptLauncher) Launch(ctx context.Context, path string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("launchers are batch scripts and need Windows to run")
	}

	cmd := exec.CommandContext(ctx, "cmd", "/C", filepath.Join(l.Dir, l.Dispatcher), path)
	cmd.Dir = l.Dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.Dispatcher, err)
	}

	// Reap the process once the curl calls return
	go cmd.Wait()
	return nil
}
