package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/mistergen/internal/config"
	"github.com/Ning0612/mistergen/internal/logger"
	"github.com/Ning0612/mistergen/internal/progress"
	"github.com/Ning0612/mistergen/internal/service"
	"github.com/Ning0612/mistergen/internal/state"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Walk the device and write one launcher per game",
	Long: `Walk every scan root on the device and mirror it locally: each game
file becomes a launcher script that posts the game's path to the device's
launch API. Directories that would stay empty are not created.

Directories that cannot be entered and launchers that cannot be written are
reported as warnings; the run still succeeds. Losing the connection aborts.`,
	Example: `  mistergen generate --host 192.168.1.20 --output ./MiSTer
  mistergen generate --host mister --dir NES --dir SNES --no-arcade
  mistergen generate --local-root /mnt/sdcard --no-dispatcher`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var generateFlags struct {
	noArcade     bool
	noDispatcher bool
	noHistory    bool
}

// generateBindings maps configuration keys to generate flags
var generateBindings = map[string]string{
	"ftp.host":         "host",
	"ftp.port":         "port",
	"ftp.user":         "user",
	"ftp.password":     "password",
	"ftp.local_root":   "local-root",
	"scan.source":      "source",
	"scan.directories": "dir",
	"output.dir":       "output",
	"workers":          "workers",
}

func init() {
	f := generateCmd.Flags()
	f.String("host", "", "Device address")
	f.Int("port", 21, "Device FTP port")
	f.String("user", "", "FTP user")
	f.String("password", "", "FTP password")
	f.String("source", "", "Storage to scan: sd or usb")
	f.StringSlice("dir", nil, "Directory under games to scan (repeatable; default all)")
	f.String("output", "", "Output directory")
	f.Int("workers", 1, "Scan roots walked concurrently, one connection each")
	f.String("local-root", "", "Walk a locally mounted card instead of connecting over FTP")
	f.BoolVar(&generateFlags.noArcade, "no-arcade", false, "Skip the arcade directory")
	f.BoolVar(&generateFlags.noDispatcher, "no-dispatcher", false, "Do not write Launcher.bat")
	f.BoolVar(&generateFlags.noHistory, "no-history", false, "Do not record the run in the history database")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{}
	if generateFlags.noArcade {
		overrides["scan.include_arcade"] = false
	}
	if generateFlags.noDispatcher {
		overrides["output.dispatcher"] = false
	}

	cfg, err := loadConfig(cmd, generateBindings, true, overrides)
	if err != nil {
		return err
	}
	log := logger.Get()

	opts := []service.Option{
		service.WithReporter(newConsoleReporter(cmd.ErrOrStderr(), globalFlags.Quiet)),
	}
	if !generateFlags.noHistory {
		history, err := state.NewManager(cfg.GetStateDir())
		if err != nil {
			log.Warn("run history unavailable", "error", err)
		} else {
			opts = append(opts, service.WithHistory(history))
		}
	}

	svc, err := service.NewGenerateService(cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.Generate(cmd.Context())
	if result != nil {
		printSummary(cmd.OutOrStdout(), cfg, svc.OutputDir(), result)
	}
	return err
}

func printSummary(w io.Writer, cfg *config.Config, outputDir string, r *service.Result) {
	elapsed := r.EndTime.Sub(r.StartTime).Round(time.Millisecond)
	fmt.Fprintf(w, "Run %s: %s in %s\n", r.RunID, r.Status, elapsed)
	fmt.Fprintf(w, "  Output:      %s\n", outputDir)
	fmt.Fprintf(w, "  Scan roots:  %d\n", len(r.Roots))
	fmt.Fprintf(w, "  Launchers:   %s\n", humanize.Comma(int64(r.Stats.LaunchersWritten)))
	fmt.Fprintf(w, "  Directories: %s created, %s skipped\n",
		humanize.Comma(int64(r.Stats.DirsCreated)),
		humanize.Comma(int64(r.Stats.DirsSkipped)))
	fmt.Fprintf(w, "  Excluded:    %s entries\n", humanize.Comma(int64(r.Stats.EntriesExcluded)))
	if r.Dispatcher {
		fmt.Fprintf(w, "  Dispatcher:  Launcher.bat (%s:%d)\n", cfg.FTP.Host, cfg.Device.APIPort)
	}
	if n := len(r.Stats.Warnings); n > 0 {
		fmt.Fprintf(w, "  Warnings:    %d\n", n)
		for _, warn := range r.Stats.Warnings {
			fmt.Fprintf(w, "    %s: %s: %v\n", warn.Kind, warn.Path, warn.Err)
		}
	}
}

// newConsoleReporter prints one line per materialized directory unless
// quiet. Warnings reach the console through the logger.
func newConsoleReporter(w io.Writer, quiet bool) progress.Reporter {
	if quiet {
		return progress.NullReporter{}
	}
	return progress.NewCallbackReporter(func(u progress.Update) {
		if u.Type != progress.UpdateDirectory {
			return
		}
		fmt.Fprintf(w, "[%d/%d] %s (%s files, %s launchers, %s)\n",
			u.RootsCompleted, u.RootsTotal, u.Path,
			progress.FormatCount(u.Files),
			progress.FormatCount(u.Launchers),
			progress.FormatRate(u.PerSecond))
	})
}
