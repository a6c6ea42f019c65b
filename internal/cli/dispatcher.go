package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ning0612/mistergen/internal/dispatcher"
	"github.com/Ning0612/mistergen/internal/logger"
	"github.com/Ning0612/mistergen/internal/service"
)

var dispatcherCmd = &cobra.Command{
	Use:   "dispatcher",
	Short: "Write only Launcher.bat into the output directory",
	Long: `Write Launcher.bat, the script every generated launcher runs through.
It triggers the OSD autosave on the device, waits, then runs the launcher
passed as its argument. The device is not contacted.`,
	Args: cobra.NoArgs,
	RunE: runDispatcher,
}

var dispatcherBindings = map[string]string{
	"ftp.host":   "host",
	"output.dir": "output",
}

func init() {
	f := dispatcherCmd.Flags()
	f.String("host", "", "Device address written into Launcher.bat")
	f.String("output", "", "Output directory")

	rootCmd.AddCommand(dispatcherCmd)
}

func runDispatcher(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, dispatcherBindings, true, nil)
	if err != nil {
		return err
	}

	svc, err := service.NewGenerateService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.WriteDispatcher(cmd.Context()); err != nil {
		return err
	}

	path := filepath.Join(svc.OutputDir(), dispatcher.FileName)
	logger.Get().Info("dispatcher written", "path", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
