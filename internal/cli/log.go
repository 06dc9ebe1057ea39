package cli

import (
	"fmt"
	"sort"

	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Inspect the deletion audit log",
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deletions, newest last",
	RunE: func(cmd *cobra.Command, args []string) error {
		audit := auditLog()
		records, err := audit.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}
		if logLimit > 0 && len(records) > logLimit {
			records = records[len(records)-logLimit:]
		}

		if jsonFlag {
			if records == nil {
				records = []history.DeletionRecord{}
			}
			return printJSON(logJSON{Version: version, Path: audit.Path(), Records: records})
		}

		if len(records) == 0 {
			fmt.Println("No deletions recorded yet.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %-9s %-16s %10s  %s\n",
				r.DeletedAt.Local().Format("2006-01-02 15:04"),
				r.Method,
				r.Category,
				utils.FormatSize(r.SizeBytes),
				r.Path)
		}
		return nil
	},
}

var logStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals from the deletion audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := auditLog().Stats()
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}

		if jsonFlag {
			return printJSON(buildStatsJSON(stats))
		}
		printStats(stats)
		return nil
	},
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		audit := auditLog()
		if !yesFlag && !confirmAction(fmt.Sprintf("Clear the audit log at %s?", audit.Path())) {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := audit.Clear(); err != nil {
			return fmt.Errorf("failed to clear audit log: %w", err)
		}
		fmt.Println("Audit log cleared.")
		return nil
	},
}

func printStats(stats history.Stats) {
	fmt.Println(headingStyle.Render("reclaim -- Deletion Stats"))
	fmt.Println()

	fmt.Printf("  Total freed all-time:  %s\n", utils.FormatSize(stats.TotalFreed))
	fmt.Printf("  Total deletions:       %d\n", stats.TotalDeletions)

	if len(stats.ByCategory) > 0 {
		fmt.Println()
		fmt.Println("  By Category:")
		printStatsTable(stats.ByCategory)
	}
	if len(stats.ByMethod) > 0 {
		fmt.Println()
		fmt.Println("  By Method:")
		printStatsTable(stats.ByMethod)
	}

	if len(stats.Recent) > 0 {
		fmt.Println()
		fmt.Println("  Recent:")
		for _, r := range stats.Recent {
			fmt.Printf("    %s  %-16s %10s  %s\n",
				r.DeletedAt.Local().Format("2006-01-02 15:04"),
				r.Category,
				utils.FormatSize(r.SizeBytes),
				truncatePath(r.Path, 40))
		}
	}

	if stats.TotalDeletions == 0 {
		fmt.Println("  No deletions recorded yet. Run 'reclaim clean' to get started.")
	}
	fmt.Println()
}

// printStatsTable prints one row per key, largest total first.
func printStatsTable(m map[string]history.CategoryStats) {
	type row struct {
		name  string
		stats history.CategoryStats
	}
	rows := make([]row, 0, len(m))
	for name, cs := range m {
		rows = append(rows, row{name: name, stats: cs})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].stats.BytesFreed != rows[j].stats.BytesFreed {
			return rows[i].stats.BytesFreed > rows[j].stats.BytesFreed
		}
		return rows[i].name < rows[j].name
	})

	for _, r := range rows {
		label := "deletions"
		if r.stats.Deletions == 1 {
			label = "deletion"
		}
		fmt.Printf("    %-22s %10s  (%d %s)\n",
			r.name, utils.FormatSize(r.stats.BytesFreed), r.stats.Deletions, label)
	}
}

func init() {
	logListCmd.Flags().IntVarP(&logLimit, "limit", "n", 0, "Show only the last N records (0 = all)")
	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logStatsCmd)
	logCmd.AddCommand(logClearCmd)
}
