package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/config"
	"github.com/lu-zhengda/reclaim/internal/dupes"
	"github.com/lu-zhengda/reclaim/internal/mounts"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/spf13/cobra"
)

var (
	dupesMinSize   string
	dupesDelete    bool
	dupesDryRun    bool
	dupesPermanent bool
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [dirs...]",
	Short: "Find duplicate files",
	Long:  "Scan directories for duplicate files using a three-pass algorithm:\n1. Group files by size\n2. Partial hash (first 4KB) for same-size files\n3. Full SHA256 only when partial hashes match\n\nWith --delete the first file of each group is kept and the other copies are\nremoved. Defaults to scan.paths from the config if no dirs are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		dirs := args
		if len(dirs) == 0 {
			dirs = cfg.Scan.Paths
		}
		dirs = utils.ExpandPaths(dirs)

		minSize := cfg.Scan.MinDuplicateSize
		if dupesMinSize != "" {
			n, err := config.ParseSize(dupesMinSize)
			if err != nil {
				return fmt.Errorf("invalid --min-size: %w", err)
			}
			minSize = n
		}

		token, stop := interruptToken(cmd.Context())
		defer stop()

		if !jsonFlag {
			fmt.Printf("Scanning for duplicates in: %s\n", strings.Join(dirs, ", "))
		}
		groups, err := findDuplicates(token, dirs, minSize)
		if err != nil {
			return fmt.Errorf("failed to scan for duplicates: %w", err)
		}

		if !dupesDelete && !dupesDryRun {
			if jsonFlag {
				return printJSON(buildDupesJSON(groups, nil))
			}
			printDupeGroups(groups)
			return nil
		}

		targets := duplicateCopies(groups)
		if !jsonFlag {
			printDupeGroups(groups)
		}
		if len(targets) == 0 {
			if jsonFlag {
				return printJSON(buildDupesJSON(groups, nil))
			}
			return nil
		}

		useTrash := cfg.Cleanup.UseTrash && !dupesPermanent
		if !dupesDryRun && !yesFlag {
			if jsonFlag {
				return errJSONNeedsYes
			}
			var wasted int64
			for _, g := range groups {
				wasted += g.Wasted()
			}
			if !confirmDeletion(len(targets), wasted, useTrash, " (keeps 1 per group)") {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		res, err := buildCleanupService(token).Run(cleanup.Request{
			Paths:    targets,
			DryRun:   dupesDryRun,
			UseTrash: useTrash,
		})
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(buildDupesJSON(groups, &res))
		}
		printCleanupResult(res)
		return nil
	},
}

func findDuplicates(token *cancel.Token, dirs []string, minSize int64) ([]dupes.Group, error) {
	var fileCount int
	search := dupes.Search{
		Dirs:      dirs,
		MinSize:   minSize,
		Workers:   currentConfig().Scan.HashWorkers,
		Validator: pathValidator(),
		Mounts:    mounts.Default(),
		Logger:    appLogger,
		OnProgress: func(string) {
			fileCount++
			if !jsonFlag && fileCount%500 == 0 {
				fmt.Fprintf(os.Stderr, "\r  Scanned %d files...", fileCount)
			}
		},
	}
	if appIgnore != nil {
		search.Ignore = appIgnore
	}

	groups, err := search.Run(token)
	if !jsonFlag && fileCount >= 500 {
		fmt.Fprintln(os.Stderr)
	}
	if errors.Is(err, cancel.ErrCancelled) {
		return nil, fmt.Errorf("interrupted: %w", err)
	}
	return groups, err
}

var errJSONNeedsYes = errors.New("refusing to delete without a prompt: pass --yes together with --json")

// duplicateCopies returns every member of every group except the first.
func duplicateCopies(groups []dupes.Group) []string {
	var out []string
	for _, g := range groups {
		if len(g.Paths) > 1 {
			out = append(out, g.Paths[1:]...)
		}
	}
	return out
}

// confirmDeletion prompts before a deletion batch. Permanent deletion
// needs the full word "yes".
func confirmDeletion(count int, size int64, useTrash bool, suffix string) bool {
	if useTrash {
		return confirmAction(fmt.Sprintf("\nMove %d items (%s) to Trash?%s", count, utils.FormatSize(size), suffix))
	}
	return confirmDangerous(fmt.Sprintf("\nPermanently delete %d items (%s)?%s", count, utils.FormatSize(size), suffix))
}

func init() {
	dupesCmd.Flags().StringVar(&dupesMinSize, "min-size", "", "Minimum file size, e.g. 4KiB or 1MB (default scan.min_duplicate_size)")
	dupesCmd.Flags().BoolVar(&dupesDelete, "delete", false, "Delete every copy except the first in each group")
	dupesCmd.Flags().BoolVar(&dupesDryRun, "dry-run", false, "Show what --delete would remove without deleting")
	dupesCmd.Flags().BoolVar(&dupesPermanent, "permanent", false, "Delete permanently instead of moving to Trash")
}
