package scanner

import (
	"path/filepath"
	"testing"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/walker"
)

func TestRiskLevelString(t *testing.T) {
	tests := []struct {
		level RiskLevel
		want  string
	}{
		{Safe, "Safe"},
		{Moderate, "Moderate"},
		{Risky, "Risky"},
		{RiskLevel(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("RiskLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestRiskOf(t *testing.T) {
	tests := []struct {
		category string
		want     RiskLevel
	}{
		{cleanup.CategoryDependencyCache, Safe},
		{cleanup.CategoryBuildCache, Safe},
		{cleanup.CategoryGitMetadata, Risky},
		{cleanup.CategoryUserSelected, Moderate},
	}
	for _, tt := range tests {
		if got := RiskOf(tt.category); got != tt.want {
			t.Errorf("RiskOf(%q) = %v, want %v", tt.category, got, tt.want)
		}
	}
}

func TestCollector_Buckets(t *testing.T) {
	root := filepath.FromSlash("/work")
	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	c := NewCollector()
	c.Add(walker.FileEntry{Path: p("app/node_modules/left-pad/index.js"), Size: 100})
	c.Add(walker.FileEntry{Path: p("app/node_modules/react/index.js"), Size: 300})
	c.Add(walker.FileEntry{Path: p("lib/node_modules/x.js"), Size: 50})
	c.Add(walker.FileEntry{Path: p("app/target/debug/app"), Size: 1000})
	c.Add(walker.FileEntry{Path: p("app/.git/objects/ab/cd"), Size: 10})
	c.Add(walker.FileEntry{Path: p("notes/todo.txt"), Size: 5000})

	targets := c.Targets()
	if len(targets) != 3 {
		t.Fatalf("expected 3 categories, got %d: %+v", len(targets), targets)
	}

	if targets[0].Category != cleanup.CategoryBuildCache || targets[0].Size != 1000 {
		t.Errorf("largest category = %+v, want build_cache with 1000 bytes", targets[0])
	}

	dep := targets[1]
	if dep.Category != cleanup.CategoryDependencyCache {
		t.Fatalf("second category = %q, want dependency_cache", dep.Category)
	}
	if dep.Size != 450 || dep.Files != 3 {
		t.Errorf("dependency totals = %d bytes / %d files, want 450 / 3", dep.Size, dep.Files)
	}
	wantDirs := []string{p("app/node_modules"), p("lib/node_modules")}
	if len(dep.Dirs) != len(wantDirs) {
		t.Fatalf("dependency dirs = %v, want %v", dep.Dirs, wantDirs)
	}
	for i := range wantDirs {
		if dep.Dirs[i] != wantDirs[i] {
			t.Errorf("dirs[%d] = %q, want %q", i, dep.Dirs[i], wantDirs[i])
		}
	}

	if targets[2].Risk != Risky {
		t.Errorf("git metadata risk = %v, want Risky", targets[2].Risk)
	}
}

func TestCategoryRoot_NestedCategories(t *testing.T) {
	path := filepath.FromSlash("/w/build/tool/node_modules/pkg/a.js")
	got := categoryRoot(path, cleanup.CategoryDependencyCache)
	want := filepath.FromSlash("/w/build/tool/node_modules")
	if got != want {
		t.Errorf("categoryRoot = %q, want %q", got, want)
	}
}

func TestCollector_FinishStoresTargets(t *testing.T) {
	c := NewCollector()
	c.Add(walker.FileEntry{Path: filepath.FromSlash("/p/dist/bundle.js"), Size: 7})

	res := &engine.Result{}
	if err := c.Finish(cancel.New(), res); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	targets := FromResult(res)
	if len(targets) != 1 || targets[0].Size != 7 {
		t.Errorf("FromResult = %+v", targets)
	}
}

func TestCollector_FinishCancelled(t *testing.T) {
	tok := cancel.New()
	tok.Cancel()
	res := &engine.Result{}
	if err := NewCollector().Finish(tok, res); err != cancel.ErrCancelled {
		t.Errorf("Finish() = %v, want ErrCancelled", err)
	}
	if FromResult(res) != nil {
		t.Error("cancelled collector should not store targets")
	}
}

func TestFromResult_Empty(t *testing.T) {
	if FromResult(nil) != nil {
		t.Error("FromResult(nil) should be nil")
	}
	if FromResult(&engine.Result{}) != nil {
		t.Error("FromResult without extras should be nil")
	}
}
