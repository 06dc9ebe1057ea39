package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/progress"
	"github.com/lu-zhengda/reclaim/internal/tui"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	scanFollowSymlinks bool
	scanTop            int
	scanPlain          bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory for duplicates, large files and reclaimable caches",
	Long:  "Walk a directory tree once and report duplicate files, large files and\ndependency or build caches. Defaults to the first path in scan.paths.\nPress q or Ctrl+C to cancel; the partial result is still reported.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		root := "~"
		if len(cfg.Scan.Paths) > 0 {
			root = cfg.Scan.Paths[0]
		}
		if len(args) == 1 {
			root = args[0]
		}
		root = utils.ExpandPath(root)

		token, stop := interruptToken(cmd.Context())
		defer stop()

		e := buildEngine()
		req := engine.ScanRequest{
			RootPath:       root,
			FollowSymlinks: scanFollowSymlinks || cfg.Scan.FollowSymlinks,
			Token:          token,
		}

		res, err := runScan(e, req, useProgressView())
		if err != nil && !errors.Is(err, cancel.ErrCancelled) {
			return err
		}

		if jsonFlag {
			return printJSON(buildScanJSON(res))
		}
		printScanResult(res, scanTop)
		return nil
	},
}

// useProgressView reports whether the interactive progress view should
// be used instead of plain line output.
func useProgressView() bool {
	if jsonFlag || scanPlain {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runScan(e *engine.Engine, req engine.ScanRequest, interactive bool) (*engine.Result, error) {
	if interactive {
		res, err := tui.RunScan(req.RootPath, req.Token, func(sink progress.Sink) (*engine.Result, error) {
			return e.Scan(req, sink)
		})
		if res == nil && err == nil {
			return nil, fmt.Errorf("scan of %s produced no result", req.RootPath)
		}
		return res, err
	}

	var sink progress.Sink
	if !jsonFlag {
		sink = plainSink(os.Stderr)
	}
	return e.Scan(req, sink)
}

// plainSink prints a phase line whenever the phase changes and
// otherwise rewrites a single status line.
func plainSink(w *os.File) progress.Sink {
	var last progress.Phase
	return func(p progress.ScanProgress) {
		if p.Phase != last {
			if last != "" {
				fmt.Fprintln(w)
			}
			last = p.Phase
		}
		fmt.Fprintf(w, "\r  %-9s %6.1f%%  %d files  %d dirs  %s",
			p.Phase, p.Percentage, p.FilesScanned, p.DirsScanned, utils.FormatSize(int64(p.BytesProcessed)))
		if p.Phase == progress.PhaseComplete || p.Phase == progress.PhaseCancelled {
			fmt.Fprintln(w)
		}
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanFollowSymlinks, "follow-symlinks", false, "Follow symbolic links (cycles are detected and skipped)")
	scanCmd.Flags().IntVar(&scanTop, "top", 10, "Number of duplicate groups and large files to list (0 = all)")
	scanCmd.Flags().BoolVar(&scanPlain, "plain", false, "Print line progress instead of the interactive view")
}
