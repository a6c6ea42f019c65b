package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ning0612/mistergen/internal/attract"
	"github.com/Ning0612/mistergen/internal/config"
	"github.com/Ning0612/mistergen/internal/dispatcher"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/logger"
	"github.com/Ning0612/mistergen/internal/scheduler"
)

var attractCmd = &cobra.Command{
	Use:   "attract",
	Short: "Launch a random game from the generated tree at a fixed interval",
	Long: `Attract mode picks a random launcher from the output directory and starts
it through Launcher.bat, then waits and picks another one, until interrupted.

The list of launchers is cached in attract_gamelist.json in the output
directory; pass --rescan after generating again.`,
	Example: `  mistergen attract --output ./MiSTer --interval 2m
  mistergen attract --rescan`,
	Args: cobra.NoArgs,
	RunE: runAttract,
}

var attractFlags struct {
	rescan bool
	count  int
}

var attractBindings = map[string]string{
	"output.dir":       "output",
	"attract.interval": "interval",
}

// newLauncher is replaced in tests
var newLauncher = func(dir string) attract.Launcher {
	return attract.ScriptLauncher{Dir: dir, Dispatcher: dispatcher.FileName}
}

func init() {
	f := attractCmd.Flags()
	f.String("output", "", "Output directory holding the launchers")
	f.Duration("interval", 0, "Time between launches (default 60s)")
	f.BoolVar(&attractFlags.rescan, "rescan", false, "Rescan the output directory instead of using the cached list")
	f.IntVar(&attractFlags.count, "count", 0, "Stop after this many launches (0 = until interrupted)")

	rootCmd.AddCommand(attractCmd)
}

func runAttract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, attractBindings, false, nil)
	if err != nil {
		return err
	}
	if cfg.Attract.Interval <= 0 {
		return fmt.Errorf("%w: attract interval must be positive", domain.ErrConfigInvalid)
	}
	if attractFlags.count < 0 {
		return fmt.Errorf("%w: count cannot be negative", domain.ErrConfigInvalid)
	}
	log := logger.Get()

	list, err := loadGamelist(cmd, cfg, attractFlags.rescan)
	if err != nil {
		return err
	}
	if len(list.Games) == 0 {
		return fmt.Errorf("%w: no launchers under %s, run generate first", domain.ErrInvalidConfiguration, list.Root)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d games, next launch every %s. Press Ctrl+C to stop.\n", len(list.Games), cfg.Attract.Interval)

	player, err := attract.NewPlayer(list, newLauncher(list.Root), attract.WithOnLaunch(func(name string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Now running: %s\n", name)
	}))
	if err != nil {
		return err
	}

	loop, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval:  cfg.Attract.Interval,
		Immediate: true,
		MaxRuns:   attractFlags.count,
	}, player)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := loop.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info("attract mode interrupted")
	case <-loop.Done():
	}
	if err := loop.Stop(); err != nil {
		log.Warn("failed to stop attract loop", "error", err)
	}

	status := loop.Status()
	log.Info("attract mode finished", "launches", status.SuccessfulRuns, "failed", status.FailedRuns)
	if status.SuccessfulRuns == 0 && status.FailedRuns > 0 {
		return fmt.Errorf("no game could be launched: %s", status.LastError)
	}
	return nil
}

// loadGamelist returns the cached gamelist unless rescan is set or the
// cache is missing, in which case the output directory is scanned and the
// cache rewritten
func loadGamelist(cmd *cobra.Command, cfg *config.Config, rescan bool) (*attract.Gamelist, error) {
	log := logger.Get()
	root, err := filepath.Abs(cfg.GetOutputDir())
	if err != nil {
		return nil, err
	}
	cache := filepath.Join(root, attract.GamelistFileName)

	if !rescan {
		list, err := attract.LoadGamelist(cache)
		if err == nil {
			log.Info("loaded gamelist", "path", cache, "games", len(list.Games))
			list.Root = root
			return list, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("ignoring unreadable gamelist", "path", cache, "error", err)
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Scanning for game launchers...")
	list, err := attract.Scan(cmd.Context(), root, cfg.Output.Extension, dispatcher.FileName)
	if err != nil {
		return nil, err
	}
	if len(list.Games) > 0 {
		if err := list.Save(cache); err != nil {
			log.Warn("failed to cache gamelist", "path", cache, "error", err)
		}
	}
	return list, nil
}
