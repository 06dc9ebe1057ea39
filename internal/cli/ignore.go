package cli

import (
	"fmt"

	"github.com/lu-zhengda/reclaim/internal/ignore"
	"github.com/spf13/cobra"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Manage paths that scans skip",
	Long:  "Manage ignore patterns. A pattern is a glob matched against the full path\nand the base name; a pattern ending in /** skips a whole directory.\nPatterns from the exclude list in the config file are always applied.",
}

var ignoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignore patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := ignoreManager()
		if err != nil {
			return err
		}
		patterns := mgr.Patterns()
		if jsonFlag {
			return printJSON(map[string][]string{"patterns": patterns})
		}
		if len(patterns) == 0 {
			fmt.Println("No ignore patterns.")
			return nil
		}
		for _, p := range patterns {
			fmt.Println(p)
		}
		return nil
	},
}

var ignoreAddCmd = &cobra.Command{
	Use:   "add <pattern...>",
	Short: "Add ignore patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := ignoreManager()
		if err != nil {
			return err
		}
		for _, p := range args {
			if err := mgr.Add(p); err != nil {
				return err
			}
			fmt.Printf("Ignoring %s\n", p)
		}
		return nil
	},
}

var ignoreRemoveCmd = &cobra.Command{
	Use:   "remove <pattern...>",
	Short: "Remove ignore patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := ignoreManager()
		if err != nil {
			return err
		}
		for _, p := range args {
			removed, err := mgr.Remove(p)
			if err != nil {
				return err
			}
			if removed {
				fmt.Printf("No longer ignoring %s\n", p)
			} else {
				fmt.Printf("Pattern %s was not in the ignore list\n", p)
			}
		}
		return nil
	},
}

func ignoreManager() (*ignore.Manager, error) {
	if appIgnore != nil {
		return appIgnore, nil
	}
	mgr, err := ignore.Load(ignore.DefaultPath(), currentConfig().Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	appIgnore = mgr
	return mgr, nil
}

func init() {
	ignoreCmd.AddCommand(ignoreListCmd)
	ignoreCmd.AddCommand(ignoreAddCmd)
	ignoreCmd.AddCommand(ignoreRemoveCmd)
}
