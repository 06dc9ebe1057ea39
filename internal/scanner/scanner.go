// Package scanner groups the files of a scan into reclaimable categories
// and rates how safe each category is to delete.
package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/cleanup"
	"github.com/lu-zhengda/reclaim/internal/engine"
	"github.com/lu-zhengda/reclaim/internal/walker"
)

// ExtraKey is the engine.Result.Extra key the collector stores its
// targets under.
const ExtraKey = "categories"

type RiskLevel int

const (
	Safe RiskLevel = iota
	Moderate
	Risky
)

func (r RiskLevel) String() string {
	switch r {
	case Safe:
		return "Safe"
	case Moderate:
		return "Moderate"
	case Risky:
		return "Risky"
	default:
		return "Unknown"
	}
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RiskOf rates a cleanup category. Caches can be rebuilt by their tools;
// git metadata holds history that may exist nowhere else.
func RiskOf(category string) RiskLevel {
	switch category {
	case cleanup.CategoryDependencyCache, cleanup.CategoryBuildCache:
		return Safe
	case cleanup.CategoryGitMetadata:
		return Risky
	default:
		return Moderate
	}
}

// Target is everything a scan found in one category.
type Target struct {
	Category string    `json:"category"`
	Size     int64     `json:"size"`
	Files    int       `json:"files"`
	Risk     RiskLevel `json:"risk"`
	// Dirs are the top directories of the category, for example each
	// node_modules directory found.
	Dirs []string `json:"dirs"`
}

// Collector buckets scanned files by cleanup.Category. Files that fall
// into no category are ignored.
type Collector struct {
	totals map[string]*Target
	dirs   map[string]map[string]bool
}

var _ engine.Collector = (*Collector)(nil)

func NewCollector() *Collector {
	return &Collector{
		totals: make(map[string]*Target),
		dirs:   make(map[string]map[string]bool),
	}
}

func (c *Collector) Name() string { return "categories" }

func (c *Collector) Add(e walker.FileEntry) {
	cat := cleanup.Category(e.Path)
	if cat == cleanup.CategoryUserSelected {
		return
	}
	t := c.totals[cat]
	if t == nil {
		t = &Target{Category: cat, Risk: RiskOf(cat)}
		c.totals[cat] = t
		c.dirs[cat] = make(map[string]bool)
	}
	t.Size += e.Size
	t.Files++
	if root := categoryRoot(e.Path, cat); root != "" {
		c.dirs[cat][root] = true
	}
}

func (c *Collector) Finish(token *cancel.Token, res *engine.Result) error {
	if token != nil && token.IsCancelled() {
		return cancel.ErrCancelled
	}
	if res.Extra == nil {
		res.Extra = make(map[string]any)
	}
	res.Extra[ExtraKey] = c.Targets()
	return nil
}

// Targets returns the categories found so far, largest first.
func (c *Collector) Targets() []Target {
	out := make([]Target, 0, len(c.totals))
	for cat, t := range c.totals {
		cp := *t
		cp.Dirs = make([]string, 0, len(c.dirs[cat]))
		for d := range c.dirs[cat] {
			cp.Dirs = append(cp.Dirs, d)
		}
		sort.Strings(cp.Dirs)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// FromResult returns the targets a Collector stored in res, or nil.
func FromResult(res *engine.Result) []Target {
	if res == nil || res.Extra == nil {
		return nil
	}
	targets, _ := res.Extra[ExtraKey].([]Target)
	return targets
}

// categoryRoot returns the shortest prefix of path that already belongs
// to cat, such as the node_modules directory holding a file.
func categoryRoot(path, cat string) string {
	clean := filepath.Clean(path)
	sep := string(filepath.Separator)
	parts := strings.Split(clean, sep)
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], sep)
		if prefix == "" {
			continue
		}
		if cleanup.Category(prefix) == cat {
			return prefix
		}
	}
	return ""
}
