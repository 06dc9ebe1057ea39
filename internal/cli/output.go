package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/dupes"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/scanner"
	"github.com/lu-zhengda/reclaim/internal/utils"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// stdin is swapped out by tests.
var stdin io.Reader = os.Stdin

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printScanResult(res *engine.Result, top int) {
	fmt.Printf("\n%s\n", headingStyle.Render("Scanned "+res.Root))
	fmt.Printf("  %d files, %d directories, %s in %s\n",
		res.Files, res.Dirs, utils.FormatSize(int64(res.Bytes)), res.Elapsed.Round(time.Millisecond))
	if res.Cancelled {
		fmt.Println(warnStyle.Render("  Scan was cancelled; results are partial."))
	}

	printCategories(scanner.FromResult(res))

	if len(res.Duplicates) > 0 {
		var wasted int64
		for _, g := range res.Duplicates {
			wasted += g.Wasted()
		}
		fmt.Printf("\n%s (%d groups, %s wasted)\n",
			headingStyle.Render("Duplicates"), len(res.Duplicates), utils.FormatSize(wasted))
		fmt.Println(strings.Repeat("-", 60))
		shown := res.Duplicates
		if top > 0 && len(shown) > top {
			shown = shown[:top]
		}
		for _, g := range shown {
			fmt.Printf("  %d x %-10s %s\n", g.MemberCount, utils.FormatSize(g.Size), truncatePath(g.Paths[0], 44))
		}
		if len(shown) < len(res.Duplicates) {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("  ... %d more (run 'reclaim dupes' for all)", len(res.Duplicates)-len(shown))))
		}
	}

	if len(res.LargeFiles) > 0 {
		fmt.Printf("\n%s\n", headingStyle.Render("Large files"))
		fmt.Println(strings.Repeat("-", 60))
		shown := res.LargeFiles
		if top > 0 && len(shown) > top {
			shown = shown[:top]
		}
		for _, f := range shown {
			fmt.Printf("  %-44s %10s %5.1f%%\n", truncatePath(f.Path, 44), utils.FormatSize(f.Size), f.Share*100)
		}
	}

	if len(res.Cycles) > 0 {
		fmt.Printf("\n%s\n", warnStyle.Render(fmt.Sprintf("Symlink cycles skipped: %d", len(res.Cycles))))
	}
	for _, w := range res.Warnings {
		fmt.Println(warnStyle.Render("warning: " + w))
	}
}

func printCategories(targets []scanner.Target) {
	if len(targets) == 0 {
		return
	}
	fmt.Printf("\n%s\n", headingStyle.Render("Reclaimable by category"))
	fmt.Println(strings.Repeat("-", 60))
	for _, t := range targets {
		risk := ""
		if t.Risk >= scanner.Moderate {
			risk = fmt.Sprintf(" [%s]", t.Risk)
		}
		fmt.Printf("  %-24s %10s  %6d files  %d dirs%s\n",
			t.Category, utils.FormatSize(t.Size), t.Files, len(t.Dirs), risk)
	}
	if line := riskSummaryLine(riskSummary(targets)); line != "" {
		fmt.Printf("\n  %s\n", line)
	}
}

func printDupeGroups(groups []dupes.Group) {
	if len(groups) == 0 {
		fmt.Println("No duplicates found!")
		return
	}

	var totalWasted int64
	var totalFiles int
	for _, g := range groups {
		totalWasted += g.Wasted()
		totalFiles += g.MemberCount
	}

	fmt.Printf("\nFound %d duplicate groups (%d files, %s wasted)\n",
		len(groups), totalFiles, utils.FormatSize(totalWasted))
	fmt.Println(strings.Repeat("-", 60))

	for i, g := range groups {
		hash := g.Hash
		if len(hash) > 16 {
			hash = hash[:16] + "..."
		}
		fmt.Printf("\nGroup %d: %s each, %d files (%s wasted)\n",
			i+1, utils.FormatSize(g.Size), g.MemberCount, utils.FormatSize(g.Wasted()))
		fmt.Println(mutedStyle.Render("  Hash: " + hash))
		for j, f := range g.Paths {
			label := "  [copy] "
			if j == 0 {
				label = "  [keep] "
			}
			fmt.Printf("%s%s\n", label, f)
		}
	}
}

func printCleanupResult(res cleanup.Result) {
	verb := "Deleted"
	if res.DryRun {
		verb = "[DRY RUN] Would delete"
	}
	fmt.Printf("\n%s %d items (%s)", verb, len(res.Deleted), utils.FormatSize(res.BytesFreed))
	if n := len(res.Skipped); n > 0 {
		fmt.Printf(", %d already gone", n)
	}
	if n := len(res.Errors); n > 0 {
		fmt.Print(errorStyle.Render(fmt.Sprintf(", %d failed", n)))
	}
	fmt.Println()
	for _, f := range res.Errors {
		fmt.Printf("  Failed: %s (%v)\n", f.Path, f.Err)
	}
	if res.DryRun {
		fmt.Println("[DRY RUN] No files were deleted.")
	} else if len(res.Deleted) > 0 && len(res.Errors) == 0 {
		fmt.Println(okStyle.Render("Done."))
	}
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

func confirmAction(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	response, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.ToLower(strings.TrimSpace(response)) == "y"
}

// confirmDangerous asks for the word "yes" in full, for actions that
// bypass the Trash.
func confirmDangerous(prompt string) bool {
	fmt.Printf("%s\n%s ", errorStyle.Render(prompt), "Type 'yes' to continue:")
	response, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.TrimSpace(response) == "yes"
}
