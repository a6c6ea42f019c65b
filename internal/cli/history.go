package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Ning0612/mistergen/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil, false, nil)
	if err != nil {
		return err
	}

	manager, err := state.NewManager(cfg.GetStateDir())
	if err != nil {
		return err
	}
	defer manager.Close()

	runs, err := manager.GetHistory(historyLimit)
	if err != nil {
		return err
	}

	writeHistoryTable(cmd.OutOrStdout(), runs, time.Now())
	return nil
}

func writeHistoryTable(w io.Writer, runs []state.RunRecord, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Started", "Duration", "Status", "Roots", "Launchers", "Skipped", "Warnings", "Error"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range runs {
		table.Append([]string{
			shortID(r.RunID),
			humanize.RelTime(r.StartTime, now, "ago", "from now"),
			r.Duration().Round(time.Millisecond).String(),
			string(r.Status),
			summarizeRoots(r.Roots),
			humanize.Comma(int64(r.Launchers)),
			humanize.Comma(int64(r.DirsSkipped)),
			humanize.Comma(int64(r.Warnings)),
			truncate(r.Error, 40),
		})
	}

	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func summarizeRoots(roots []string) string {
	switch len(roots) {
	case 0:
		return "-"
	case 1:
		return roots[0]
	default:
		return fmt.Sprintf("%s (+%d)", roots[0], len(roots)-1)
	}
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
