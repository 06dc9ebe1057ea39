// Package dupes groups files with identical content. Candidates are
// narrowed by size, then by a hash of the first few KiB, and only the
// survivors are hashed in full.
package dupes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/mounts"
	"github.com/lu-zhengda/reclaim/internal/walker"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// partialHashSize is the number of bytes read for the partial hash pass.
const partialHashSize = 4096

// Group is a set of files sharing the same size and SHA-256.
type Group struct {
	Hash        string   `json:"hash"`
	Paths       []string `json:"paths"`
	Size        int64    `json:"size"`
	MemberCount int      `json:"member_count"`
}

// Wasted is the space that would be recovered by keeping one copy.
func (g Group) Wasted() int64 {
	return g.Size * int64(g.MemberCount-1)
}

// Detector collects entries during a walk and groups them afterwards.
// Add is not safe for concurrent use; hashing inside Groups is.
type Detector struct {
	MinSize int64
	Workers int
	Logger  zerolog.Logger
	// OnHashed, if set, is called from the calling goroutine after each
	// hash pass with the number of files hashed in that pass.
	OnHashed func(files int)

	bySize map[int64][]candidate
	next   int
}

type candidate struct {
	path  string
	index int
	info  os.FileInfo
}

func NewDetector(minSize int64, logger zerolog.Logger) *Detector {
	return &Detector{
		MinSize: minSize,
		Workers: runtime.NumCPU(),
		Logger:  logger,
		bySize:  make(map[int64][]candidate),
	}
}

// Add records e if it is at least MinSize bytes. Empty files are never
// candidates. A file already recorded under another name (a hard link, a
// followed symlink, or the same tree reached through two roots) is
// dropped, so every group member is a separate copy on disk.
func (d *Detector) Add(e walker.FileEntry) {
	if e.Size <= 0 || e.Size < d.MinSize {
		return
	}
	if d.bySize == nil {
		d.bySize = make(map[int64][]candidate)
	}
	if e.Info != nil {
		for _, c := range d.bySize[e.Size] {
			if c.info != nil && os.SameFile(c.info, e.Info) {
				d.Logger.Debug().Str("path", e.Path).Str("same_as", c.path).Msg("skipping second name for the same file")
				return
			}
		}
	}
	d.bySize[e.Size] = append(d.bySize[e.Size], candidate{path: e.Path, index: d.next, info: e.Info})
	d.next++
}

// Groups hashes the collected candidates and returns the duplicate groups,
// largest waste first. It returns cancel.ErrCancelled if token is
// cancelled before hashing finishes.
func (d *Detector) Groups(token *cancel.Token) ([]Group, error) {
	if token == nil {
		token = cancel.New()
	}

	var buckets []bucket
	for size, cs := range d.bySize {
		if len(cs) >= 2 {
			buckets = append(buckets, bucket{size: size, members: cs})
		}
	}

	pool, err := ants.NewPool(d.workers())
	if err != nil {
		return nil, fmt.Errorf("failed to create hash pool: %w", err)
	}
	defer pool.Release()

	partial, err := d.refine(pool, token, buckets, hashPartial)
	if err != nil {
		return nil, err
	}
	full, err := d.refine(pool, token, partial, hashFull)
	if err != nil {
		return nil, err
	}

	groups := make([]Group, 0, len(full))
	firstSeen := make([]int, 0, len(full))
	for _, b := range full {
		sort.Slice(b.members, func(i, j int) bool { return b.members[i].index < b.members[j].index })
		paths := make([]string, len(b.members))
		for i, m := range b.members {
			paths[i] = m.path
		}
		groups = append(groups, Group{Hash: b.hash, Paths: paths, Size: b.size, MemberCount: len(paths)})
		firstSeen = append(firstSeen, b.members[0].index)
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := groups[order[i]], groups[order[j]]
		if a.Wasted() != b.Wasted() {
			return a.Wasted() > b.Wasted()
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	sorted := make([]Group, len(groups))
	for i, idx := range order {
		sorted[i] = groups[idx]
	}
	return sorted, nil
}

func (d *Detector) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.NumCPU()
}

type bucket struct {
	size    int64
	hash    string
	members []candidate
}

type hashResult struct {
	hash string
	err  error
}

// refine hashes every member of every bucket on the pool and splits each
// bucket by hash, dropping singletons. Each task writes only its own slot
// in results; the split happens here once all tasks are done.
func (d *Detector) refine(pool *ants.Pool, token *cancel.Token, buckets []bucket, hash func(string) (string, error)) ([]bucket, error) {
	var total int
	for _, b := range buckets {
		total += len(b.members)
	}
	results := make([]hashResult, total)

	var wg sync.WaitGroup
	slot := 0
	for _, b := range buckets {
		for _, m := range b.members {
			if token.IsCancelled() {
				wg.Wait()
				return nil, cancel.ErrCancelled
			}
			i, path := slot, m.path
			slot++
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				if token.IsCancelled() {
					results[i].err = cancel.ErrCancelled
					return
				}
				h, err := hash(path)
				results[i] = hashResult{hash: h, err: err}
			}); err != nil {
				wg.Done()
				results[i].err = err
			}
		}
	}
	wg.Wait()

	if token.IsCancelled() {
		return nil, cancel.ErrCancelled
	}
	if d.OnHashed != nil {
		d.OnHashed(total)
	}

	var refined []bucket
	slot = 0
	for _, b := range buckets {
		byHash := make(map[string][]candidate)
		var keys []string
		for _, m := range b.members {
			r := results[slot]
			slot++
			if r.err != nil {
				d.Logger.Warn().Err(r.err).Str("path", m.path).Msg("skipping unreadable file")
				continue
			}
			if _, ok := byHash[r.hash]; !ok {
				keys = append(keys, r.hash)
			}
			byHash[r.hash] = append(byHash[r.hash], m)
		}
		for _, h := range keys {
			if members := byHash[h]; len(members) >= 2 {
				refined = append(refined, bucket{size: b.size, hash: h, members: members})
			}
		}
	}
	return refined, nil
}

func hashPartial(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyN(h, f, partialHashSize); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}

func hashFull(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ProgressFunc is called with each file path as it is visited during scanning.
type ProgressFunc func(path string)

// Find scans dirs for duplicate files whose size is at least minSize bytes.
func Find(ctx context.Context, dirs []string, minSize int64) ([]Group, error) {
	return FindWithProgress(ctx, dirs, minSize, nil)
}

// FindWithProgress is like Find but calls onProgress for each file visited.
func FindWithProgress(ctx context.Context, dirs []string, minSize int64, onProgress ProgressFunc) ([]Group, error) {
	token := cancel.New()
	stop := token.Bind(ctx)
	defer stop()

	return Search{Dirs: dirs, MinSize: minSize, OnProgress: onProgress, Logger: zerolog.Nop()}.Run(token)
}

// RootValidator checks a search root and returns its canonical form.
// *safety.PathValidator satisfies it.
type RootValidator interface {
	Validate(path string) (string, error)
}

// Search describes a duplicate search over several directory trees.
type Search struct {
	Dirs       []string
	MinSize    int64
	Workers    int
	Ignore     walker.Matcher
	OnProgress ProgressFunc
	// Validator, if set, vets every root before anything is walked and
	// replaces it with its canonical path.
	Validator RootValidator
	Mounts    mounts.Inspector
	Logger    zerolog.Logger
}

// Run walks every directory in order and groups the files found. Files
// reachable from more than one directory are only counted once.
func (s Search) Run(token *cancel.Token) ([]Group, error) {
	if token == nil {
		token = cancel.New()
	}
	roots, err := s.roots()
	if err != nil {
		return nil, err
	}

	d := NewDetector(s.MinSize, s.Logger)
	d.Workers = s.Workers
	seen := make(map[string]bool)
	for _, dir := range roots {
		w := walker.New(dir, walker.Options{Token: token, Ignore: s.Ignore, Mounts: s.Mounts, Logger: s.Logger})
		err := w.Walk(func(e walker.FileEntry) error {
			if seen[e.Path] {
				return nil
			}
			seen[e.Path] = true
			if s.OnProgress != nil {
				s.OnProgress(e.Path)
			}
			d.Add(e)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	}

	groups, err := d.Groups(token)
	if err != nil {
		return nil, fmt.Errorf("failed to hash candidates: %w", err)
	}
	return groups, nil
}

// roots validates every directory up front, so a rejected root stops the
// search before any other root is walked. Roots that resolve to the same
// canonical path are walked once.
func (s Search) roots() ([]string, error) {
	if s.Validator == nil {
		return s.Dirs, nil
	}
	out := make([]string, 0, len(s.Dirs))
	seen := make(map[string]bool, len(s.Dirs))
	for _, dir := range s.Dirs {
		root, err := s.Validator.Validate(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid search root %s: %w", dir, err)
		}
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out, nil
}
