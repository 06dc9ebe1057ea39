package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/dupes"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/lu-zhengda/reclaim/internal/scanner"
)

func TestBuildScanJSON(t *testing.T) {
	res := &engine.Result{
		Root:    "/work",
		Files:   3,
		Dirs:    1,
		Bytes:   6000,
		Elapsed: 1500 * time.Millisecond,
		Extra: map[string]any{
			scanner.ExtraKey: []scanner.Target{
				{Category: "build_cache", Size: 1000, Risk: scanner.Safe},
				{Category: "git_metadata", Size: 3000, Risk: scanner.Risky},
			},
		},
	}

	result := buildScanJSON(res)

	if result.Version != version {
		t.Errorf("Version = %q, want %q", result.Version, version)
	}
	if result.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if result.ElapsedMS != 1500 {
		t.Errorf("ElapsedMS = %d, want 1500", result.ElapsedMS)
	}
	if len(result.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(result.Categories))
	}
	if result.RiskSummary.Safe != 1000 || result.RiskSummary.Risky != 3000 {
		t.Errorf("RiskSummary = %+v", result.RiskSummary)
	}
}

func TestBuildScanJSON_EmptyListsAreArrays(t *testing.T) {
	data, err := json.Marshal(buildScanJSON(&engine.Result{Root: "/empty"}))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, key := range []string{"categories", "duplicates", "large_files", "warnings", "symlink_cycles"} {
		if !strings.Contains(out, `"`+key+`":[]`) {
			t.Errorf("%s should encode as [], got %s", key, out)
		}
	}
	if strings.Contains(out, "null") {
		t.Errorf("unexpected null in %s", out)
	}
}

func TestBuildDupesJSON(t *testing.T) {
	groups := []dupes.Group{
		{Size: 1024, Hash: "abc123", Paths: []string{"/a/file.txt", "/b/file.txt", "/c/file.txt"}, MemberCount: 3},
		{Size: 2048, Hash: "def456", Paths: []string{"/x/data.bin", "/y/data.bin"}, MemberCount: 2},
	}

	result := buildDupesJSON(groups, nil)

	if result.TotalFiles != 5 {
		t.Errorf("TotalFiles = %d, want 5", result.TotalFiles)
	}
	// Waste: group1 = 1024 * 2 = 2048, group2 = 2048 * 1 = 2048, total = 4096
	if result.TotalWaste != 4096 {
		t.Errorf("TotalWaste = %d, want 4096", result.TotalWaste)
	}
	if result.Cleanup != nil {
		t.Error("Cleanup should be nil when nothing was deleted")
	}

	data, err := json.Marshal(buildDupesJSON(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"groups":[]`) {
		t.Errorf("empty groups should encode as [], got %s", data)
	}
}

func TestBuildCleanJSON(t *testing.T) {
	res := cleanup.Result{
		Deleted:    []string{"/a"},
		Errors:     []cleanup.Failure{{Path: "/b", Err: errors.New("busy")}},
		BytesFreed: 10,
	}
	data, err := json.Marshal(buildCleanJSON(res))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`"deleted":["/a"]`,
		`"skipped":[]`,
		`"errors":[{"path":"/b","error":"busy"}]`,
		`"bytes_freed":10`,
		`"dry_run":false`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestBuildStatsJSON(t *testing.T) {
	stats := history.Stats{
		TotalFreed:     5000,
		TotalDeletions: 2,
		ByCategory: map[string]history.CategoryStats{
			"build_cache": {BytesFreed: 5000, Deletions: 2},
		},
		ByMethod: map[string]history.CategoryStats{
			history.MethodTrash: {BytesFreed: 5000, Deletions: 2},
		},
	}

	result := buildStatsJSON(stats)

	if result.Version != version {
		t.Errorf("Version = %q, want %q", result.Version, version)
	}
	if result.TotalFreed != 5000 || result.TotalDeletions != 2 {
		t.Errorf("totals = %d / %d", result.TotalFreed, result.TotalDeletions)
	}
	if result.Recent == nil {
		t.Error("Recent should be an empty slice, not nil")
	}
	if result.ByMethod[history.MethodTrash].Deletions != 2 {
		t.Errorf("ByMethod = %+v", result.ByMethod)
	}
}
