package cli

import (
	"fmt"

	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanPermanent bool
	cleanDryRun    bool
	cleanQuiet     bool
)

// cleanPrint prints to stdout only when --quiet is not set.
func cleanPrint(format string, a ...any) {
	if !cleanQuiet {
		fmt.Printf(format, a...)
	}
}

var cleanCmd = &cobra.Command{
	Use:   "clean <paths...>",
	Short: "Delete the given files or directories",
	Long:  "Delete the given paths after checking each one against the blocked system\ndirectories. Paths go to the Trash unless --permanent is set. Every deletion\nis recorded in the audit log.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		paths := utils.ExpandPaths(args)
		useTrash := cfg.Cleanup.UseTrash && !cleanPermanent

		token, stop := interruptToken(cmd.Context())
		defer stop()
		svc := buildCleanupService(token)

		if !cleanDryRun && !yesFlag {
			if jsonFlag {
				return errJSONNeedsYes
			}
			size, err := svc.Validator.Validate(paths)
			if err != nil {
				return fmt.Errorf("cleanup request rejected: %w", err)
			}
			if !confirmDeletion(len(paths), size, useTrash, "") {
				cleanPrint("Cancelled.\n")
				return nil
			}
		}

		res, err := svc.Run(cleanup.Request{
			Paths:    paths,
			DryRun:   cleanDryRun,
			UseTrash: useTrash,
		})
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(buildCleanJSON(res))
		}
		if !cleanQuiet {
			printCleanupResult(res)
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d of %d paths could not be deleted", len(res.Errors), len(paths))
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanPermanent, "permanent", false, "Permanently delete instead of moving to Trash")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVarP(&cleanQuiet, "quiet", "q", false, "Suppress all output except errors")
}
