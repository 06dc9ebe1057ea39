package cli

import (
	"time"

	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/dupes"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/lu-zhengda/reclaim/internal/scanner"
)

// ---------------------------------------------------------------------------
// Scan JSON types
// ---------------------------------------------------------------------------

type scanJSON struct {
	Version     string             `json:"version"`
	Timestamp   time.Time          `json:"timestamp"`
	Root        string             `json:"root"`
	Files       uint64             `json:"files"`
	Dirs        uint64             `json:"dirs"`
	Bytes       uint64             `json:"bytes"`
	ElapsedMS   int64              `json:"elapsed_ms"`
	Cancelled   bool               `json:"cancelled"`
	Categories  []scanner.Target   `json:"categories"`
	RiskSummary RiskBreakdown      `json:"risk_summary"`
	Duplicates  []dupes.Group      `json:"duplicates"`
	LargeFiles  []engine.LargeFile `json:"large_files"`
	Warnings    []string           `json:"warnings"`
	Cycles      []string           `json:"symlink_cycles"`
}

// buildScanJSON flattens an engine result, with empty lists rendered as
// [] rather than null.
func buildScanJSON(res *engine.Result) scanJSON {
	cats := scanner.FromResult(res)
	out := scanJSON{
		Version:     version,
		Timestamp:   time.Now().UTC(),
		Root:        res.Root,
		Files:       res.Files,
		Dirs:        res.Dirs,
		Bytes:       res.Bytes,
		ElapsedMS:   res.Elapsed.Milliseconds(),
		Cancelled:   res.Cancelled,
		Categories:  cats,
		RiskSummary: riskSummary(cats),
		Duplicates:  res.Duplicates,
		LargeFiles:  res.LargeFiles,
		Warnings:    res.Warnings,
		Cycles:      res.Cycles,
	}
	if out.Categories == nil {
		out.Categories = []scanner.Target{}
	}
	if out.Duplicates == nil {
		out.Duplicates = []dupes.Group{}
	}
	if out.LargeFiles == nil {
		out.LargeFiles = []engine.LargeFile{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.Cycles == nil {
		out.Cycles = []string{}
	}
	return out
}

// ---------------------------------------------------------------------------
// Dupes JSON types
// ---------------------------------------------------------------------------

type dupesJSON struct {
	Version    string          `json:"version"`
	Timestamp  time.Time       `json:"timestamp"`
	Groups     []dupes.Group   `json:"groups"`
	TotalFiles int             `json:"total_files"`
	TotalWaste int64           `json:"total_waste"`
	Cleanup    *cleanup.Result `json:"cleanup,omitempty"`
}

// buildDupesJSON summarises duplicate groups into a JSON-serializable structure.
func buildDupesJSON(groups []dupes.Group, res *cleanup.Result) dupesJSON {
	out := dupesJSON{
		Version:   version,
		Timestamp: time.Now().UTC(),
		Groups:    groups,
		Cleanup:   res,
	}
	if out.Groups == nil {
		out.Groups = []dupes.Group{}
	}
	for _, g := range groups {
		out.TotalFiles += g.MemberCount
		out.TotalWaste += g.Wasted()
	}
	return out
}

// ---------------------------------------------------------------------------
// Clean JSON type
// ---------------------------------------------------------------------------

type cleanJSON struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	cleanup.Result
}

func buildCleanJSON(res cleanup.Result) cleanJSON {
	if res.Deleted == nil {
		res.Deleted = []string{}
	}
	if res.Skipped == nil {
		res.Skipped = []string{}
	}
	if res.Errors == nil {
		res.Errors = []cleanup.Failure{}
	}
	return cleanJSON{Version: version, Timestamp: time.Now().UTC(), Result: res}
}

// ---------------------------------------------------------------------------
// Audit log JSON types
// ---------------------------------------------------------------------------

type statsJSON struct {
	Version        string                           `json:"version"`
	TotalFreed     int64                            `json:"total_freed"`
	TotalDeletions int                              `json:"total_deletions"`
	ByCategory     map[string]history.CategoryStats `json:"by_category"`
	ByMethod       map[string]history.CategoryStats `json:"by_method"`
	Recent         []history.DeletionRecord         `json:"recent"`
}

// buildStatsJSON converts audit stats into a JSON-serializable structure.
func buildStatsJSON(stats history.Stats) statsJSON {
	out := statsJSON{
		Version:        version,
		TotalFreed:     stats.TotalFreed,
		TotalDeletions: stats.TotalDeletions,
		ByCategory:     stats.ByCategory,
		ByMethod:       stats.ByMethod,
		Recent:         stats.Recent,
	}
	if out.Recent == nil {
		out.Recent = []history.DeletionRecord{}
	}
	return out
}

type logJSON struct {
	Version string                   `json:"version"`
	Path    string                   `json:"path"`
	Records []history.DeletionRecord `json:"records"`
}
