package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/schedule"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run recurring scans",
	Long:  "Rescan the configured paths on a fixed interval inside this process.\nThe schedule section of the config sets the interval, the time of day of\nthe first run and the paths.",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Scan on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := currentConfig().Schedule
		paths := sc.Paths
		if len(args) > 0 {
			paths = args
		}
		paths = utils.ExpandPaths(paths)
		if len(paths) == 0 {
			return errors.New("no paths to scan: set schedule.paths or pass paths as arguments")
		}

		interval, err := schedule.ParseInterval(sc.Interval)
		if err != nil {
			return fmt.Errorf("invalid schedule.interval: %w", err)
		}
		delay, err := schedule.DelayUntil(sc.Time, time.Now())
		if err != nil {
			return fmt.Errorf("invalid schedule.time: %w", err)
		}

		token, stop := interruptToken(cmd.Context())
		defer stop()

		e := buildEngine()
		reg := schedule.NewRegistry(appLogger)
		for _, p := range paths {
			if err := reg.Start(p, interval, delay, scheduledScan(e, p)); err != nil {
				reg.StopAll()
				return err
			}
		}

		fmt.Printf("Scanning %d path(s) every %s", len(paths), interval)
		if delay > 0 {
			fmt.Printf(", first run in %s", delay.Round(time.Minute))
		}
		fmt.Println(". Press Ctrl+C to stop.")

		<-token.Done()
		reg.StopAll()
		fmt.Println("Stopped.")
		return nil
	},
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := currentConfig().Schedule
		if jsonFlag {
			return printJSON(sc)
		}
		state := "disabled"
		if sc.Enabled {
			state = "enabled"
		}
		fmt.Printf("Scheduled scans: %s\n", state)
		fmt.Printf("  Interval: %s\n", sc.Interval)
		if sc.Time != "" {
			fmt.Printf("  At:       %s\n", sc.Time)
		}
		for _, p := range sc.Paths {
			fmt.Printf("  Path:     %s\n", p)
		}
		if !sc.Enabled {
			fmt.Println("  Set schedule.enabled and run 'reclaim schedule run' to start.")
		}
		return nil
	},
}

// scheduledScan scans root once per run and prints a one-line summary.
func scheduledScan(e *engine.Engine, root string) schedule.RunFunc {
	return func(token *cancel.Token) error {
		res, err := e.Scan(engine.ScanRequest{
			RootPath:       root,
			FollowSymlinks: currentConfig().Scan.FollowSymlinks,
			Token:          token,
		}, nil)
		if errors.Is(err, cancel.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(summaryLine(res, time.Now()))
		return nil
	}
}

func summaryLine(res *engine.Result, at time.Time) string {
	var wasted int64
	for _, g := range res.Duplicates {
		wasted += g.Wasted()
	}
	return fmt.Sprintf("%s  %s: %d files, %s scanned, %d duplicate groups (%s wasted), %d large files",
		at.Format("2006-01-02 15:04"), res.Root, res.Files, utils.FormatSize(int64(res.Bytes)),
		len(res.Duplicates), utils.FormatSize(wasted), len(res.LargeFiles))
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
}
