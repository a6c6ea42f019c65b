package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ning0612/mistergen/internal/config"
	"github.com/Ning0612/mistergen/internal/logger"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

// GlobalFlags holds the persistent flags shared by every command
type GlobalFlags struct {
	Config    string
	LogLevel  string
	LogFormat string
	LogFile   string
	StateDir  string
	Quiet     bool
}

var globalFlags GlobalFlags

// globalBindings maps configuration keys to persistent flag names
var globalBindings = map[string]string{
	"log.level":  "log-level",
	"log.format": "log-format",
	"state_dir":  "state-dir",
}

var rootCmd = &cobra.Command{
	Use:   "mistergen",
	Short: "Generate launcher scripts for the games on a MiSTer device",
	Long: `mistergen walks the game directories of a MiSTer FPGA device over FTP
and writes one launcher script per game into a local tree that mirrors the
device layout. Each launcher asks the device's remote API to start the game,
going through Launcher.bat so the OSD autosave runs first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.Config, "config", "", "Path to configuration file")
	pf.StringVar(&globalFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&globalFlags.LogFormat, "log-format", "", "Log format (text, json)")
	pf.StringVar(&globalFlags.LogFile, "log-file", "", "Also write logs to this rotating file")
	pf.StringVar(&globalFlags.StateDir, "state-dir", "", "Directory holding the run history database")
	pf.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Only print warnings and the final summary")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	logger.Shutdown()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return ExitSuccess
}

// loadConfig reads the configuration with flags, environment and file
// merged, then starts the logger from it. validate is false for commands
// that never contact the device. overrides are applied last.
func loadConfig(cmd *cobra.Command, bindings map[string]string, validate bool, overrides map[string]any) (*config.Config, error) {
	v := config.New()
	for _, b := range []map[string]string{globalBindings, bindings} {
		for key, name := range b {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				return nil, fmt.Errorf("unknown flag %q bound to %s", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	var (
		cfg *config.Config
		err error
	)
	if validate {
		cfg, err = config.LoadWith(v, globalFlags.Config)
	} else {
		cfg, err = config.Read(v, globalFlags.Config)
	}
	if err != nil {
		return nil, err
	}

	if globalFlags.LogFile != "" {
		cfg.Log.File.Enabled = true
		cfg.Log.File.Path = globalFlags.LogFile
	}

	if err := logger.Init(logger.BuildConfig(cfg.LoggerOptions(globalFlags.Quiet))); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
