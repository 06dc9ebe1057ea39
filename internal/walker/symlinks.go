package walker

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// SymlinkTracker remembers the canonical form of every directory entered
// during one walk. A second visit to the same canonical directory is a
// cycle.
type SymlinkTracker struct {
	mu      sync.Mutex
	visited map[string]struct{}
	cycles  []string
	logger  zerolog.Logger
}

func NewSymlinkTracker(logger zerolog.Logger) *SymlinkTracker {
	return &SymlinkTracker{visited: make(map[string]struct{}), logger: logger}
}

// Check reports whether path may be entered. It returns false when the
// canonical path was already visited, or when it cannot be resolved.
func (s *SymlinkTracker) Check(path string) bool {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("cannot resolve directory, skipping")
		return false
	}
	if abs, err := filepath.Abs(canonical); err == nil {
		canonical = abs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.visited[canonical]; seen {
		s.cycles = append(s.cycles, path)
		s.logger.Debug().Str("path", path).Str("target", canonical).Msg("symlink cycle detected")
		return false
	}
	s.visited[canonical] = struct{}{}
	return true
}

// Cycles returns the paths that were refused because their target had
// already been visited.
func (s *SymlinkTracker) Cycles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cycles))
	copy(out, s.cycles)
	return out
}

func (s *SymlinkTracker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]struct{})
	s.cycles = nil
}
