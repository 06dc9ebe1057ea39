// Package ignore holds the user's exclusion patterns. A Manager is built
// once at startup and handed to every component that walks the disk.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/lu-zhengda/reclaim/internal/utils"
	"gopkg.in/yaml.v3"
)

// Manager guards a pattern list with a single lock. The lock is held for
// a read or for a swap-and-save, never across a filesystem walk.
type Manager struct {
	mu       sync.RWMutex
	patterns []string
	path     string
}

type fileFormat struct {
	Patterns []string `yaml:"patterns"`
}

// New returns an in-memory manager seeded with patterns.
func New(patterns []string) *Manager {
	return &Manager{patterns: slices.Clone(patterns)}
}

// Load reads patterns from a YAML file. A missing file yields an empty
// manager that will create the file on its first change.
func Load(path string, seed []string) (*Manager, error) {
	m := &Manager{path: path, patterns: slices.Clone(seed)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse ignore file: %w", err)
	}
	for _, p := range ff.Patterns {
		if !slices.Contains(m.patterns, p) {
			m.patterns = append(m.patterns, p)
		}
	}
	return m, nil
}

// DefaultPath returns ~/.config/reclaim/ignore.yaml.
func DefaultPath() string {
	return filepath.Join(utils.HomeDir(), ".config", "reclaim", "ignore.yaml")
}

// Patterns returns a copy of the current patterns.
func (m *Manager) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.patterns)
}

// Add appends pattern if it is not already present and persists the
// result.
func (m *Manager) Add(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("empty ignore pattern")
	}
	if _, err := filepath.Match(strings.TrimSuffix(pattern, "/**"), ""); err != nil {
		return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.patterns, pattern) {
		return nil
	}
	next := append(slices.Clone(m.patterns), pattern)
	return m.swapAndSave(next)
}

// Remove deletes pattern and persists the result. It reports whether the
// pattern was present.
func (m *Manager) Remove(pattern string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.Index(m.patterns, pattern)
	if idx < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(m.patterns), idx, idx+1)
	return true, m.swapAndSave(next)
}

// swapAndSave writes next to disk and only then makes it current, so a
// failed save leaves the in-memory state unchanged. Callers hold m.mu.
func (m *Manager) swapAndSave(next []string) error {
	if m.path != "" {
		data, err := yaml.Marshal(fileFormat{Patterns: next})
		if err != nil {
			return fmt.Errorf("failed to marshal ignore patterns: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
			return fmt.Errorf("failed to create ignore directory: %w", err)
		}
		if err := os.WriteFile(m.path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write ignore file: %w", err)
		}
	}
	m.patterns = next
	return nil
}

// Match reports whether path matches any pattern. Matching is done
// against the full path and against the base name. Patterns ending in
// "/**" are directory prefix matches, and a leading ~ is expanded.
func (m *Manager) Match(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return matchAny(m.patterns, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		pattern = utils.ExpandPath(pattern)

		if strings.HasSuffix(pattern, "/**") {
			prefix := filepath.Clean(strings.TrimSuffix(pattern, "/**"))
			if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
				return true
			}
			continue
		}

		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}
