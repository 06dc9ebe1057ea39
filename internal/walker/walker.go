// Package walker streams the regular files below a root directory. The
// walk is single-threaded and can be stopped at any step through a
// cancel.Token.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/mounts"
	"github.com/lu-zhengda/reclaim/internal/progress"
	"github.com/rs/zerolog"
)

const (
	DefaultProgressEvery     = 100
	DefaultLargeDirThreshold = 10_000
)

// FileEntry is one regular file found by the walk. Info identifies the
// underlying file, so a hard link or a followed symlink can be told apart
// from a real copy with os.SameFile. It is nil for entries built by hand.
type FileEntry struct {
	Path    string      `json:"path"`
	Size    int64       `json:"size"`
	ModTime time.Time   `json:"mod_time"`
	Info    os.FileInfo `json:"-"`
}

// Matcher decides whether a path should be pruned from the walk.
type Matcher interface {
	Match(path string) bool
}

type Options struct {
	FollowSymlinks bool
	Token          *cancel.Token
	Tracker        *progress.Tracker
	Sink           progress.Sink
	// ProgressEvery is the number of files between snapshots sent to Sink.
	ProgressEvery int
	// LargeDirThreshold is the file count above which a directory is
	// reported as large.
	LargeDirThreshold int
	Ignore            Matcher
	Mounts            mounts.Inspector
	Logger            zerolog.Logger
}

// Walker iterates over files in the manner of bufio.Scanner:
//
//	w := walker.New(root, opts)
//	for w.Next() {
//		e := w.Entry()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	root string
	opts Options

	symlinks *SymlinkTracker
	stack    []string
	pending  []FileEntry
	current  FileEntry
	warnings []string
	err      error
	started  bool
	done     bool

	dir           string
	dirFiles      int
	sinceSnapshot int
}

// New prepares a walk of root. Nothing is read until the first call to
// Next.
func New(root string, opts Options) *Walker {
	if opts.Token == nil {
		opts.Token = cancel.New()
	}
	if opts.Tracker == nil {
		opts.Tracker = progress.NewTracker()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.LargeDirThreshold <= 0 {
		opts.LargeDirThreshold = DefaultLargeDirThreshold
	}
	return &Walker{
		root:     root,
		opts:     opts,
		symlinks: NewSymlinkTracker(opts.Logger),
	}
}

// Next advances to the next file. It returns false when the walk is
// finished, cancelled or failed; Err tells which.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	if !w.started {
		w.started = true
		if err := w.start(); err != nil {
			return w.finish(err)
		}
	}

	for {
		if w.opts.Token.IsCancelled() {
			return w.finish(cancel.ErrCancelled)
		}

		if len(w.pending) > 0 {
			w.current = w.pending[0]
			w.pending = w.pending[1:]
			w.record(w.current)
			return true
		}

		if len(w.stack) == 0 {
			return w.finish(nil)
		}

		dir := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.enter(dir)
	}
}

// Entry returns the file produced by the most recent call to Next.
func (w *Walker) Entry() FileEntry { return w.current }

// Err returns the error that stopped the walk, or nil if it ran to
// completion. A cancelled walk returns cancel.ErrCancelled.
func (w *Walker) Err() error { return w.err }

// Warnings returns the advisories collected so far.
func (w *Walker) Warnings() []string {
	out := make([]string, len(w.warnings))
	copy(out, w.warnings)
	return out
}

// Cycles returns the directories skipped because they were already visited.
func (w *Walker) Cycles() []string { return w.symlinks.Cycles() }

// Walk calls fn for every file. A non-nil error from fn stops the walk and
// is returned.
func (w *Walker) Walk(fn func(FileEntry) error) error {
	for w.Next() {
		if err := fn(w.Entry()); err != nil {
			w.finish(nil)
			return err
		}
	}
	return w.Err()
}

func (w *Walker) start() error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("failed to resolve root: %w", err)
	}
	w.root = root

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}

	w.checkMount(root)

	if !info.IsDir() {
		w.pending = append(w.pending, FileEntry{Path: root, Size: info.Size(), ModTime: info.ModTime(), Info: info})
		return nil
	}
	if w.symlinks.Check(root) {
		w.stack = append(w.stack, root)
	}
	return nil
}

func (w *Walker) checkMount(root string) {
	if w.opts.Mounts == nil {
		return
	}
	info, err := w.opts.Mounts.Inspect(root)
	if err != nil {
		w.opts.Logger.Debug().Err(err).Str("path", root).Msg("mount inspection failed")
		return
	}
	if info.Network {
		w.warn(fmt.Sprintf("%s is on a network filesystem (%s at %s); scanning may be slow", root, info.FSType, info.MountPoint))
	}
}

// enter reads one directory, queueing its files and pushing its
// subdirectories. Read failures become warnings.
func (w *Walker) enter(dir string) {
	w.closeDir()
	w.dir = dir
	w.opts.Tracker.IncrementDirs(1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.warn(fmt.Sprintf("cannot read %s: %v", dir, err))
		if len(entries) == 0 {
			return
		}
	}

	// Push subdirectories in reverse so they pop in name order.
	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if w.opts.Ignore != nil && w.opts.Ignore.Match(path) {
			continue
		}

		mode := e.Type()
		if mode&fs.ModeSymlink != 0 {
			if !w.opts.FollowSymlinks {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				w.opts.Logger.Debug().Err(err).Str("path", path).Msg("dangling symlink")
				continue
			}
			if info.IsDir() {
				if w.symlinks.Check(path) {
					subdirs = append(subdirs, path)
				}
				continue
			}
			if info.Mode().IsRegular() {
				w.pending = append(w.pending, FileEntry{Path: path, Size: info.Size(), ModTime: info.ModTime(), Info: info})
			}
			continue
		}

		if e.IsDir() {
			if w.symlinks.Check(path) {
				subdirs = append(subdirs, path)
			}
			continue
		}
		if !mode.IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				w.opts.Logger.Debug().Err(err).Str("path", path).Msg("cannot stat file")
			}
			continue
		}
		w.pending = append(w.pending, FileEntry{Path: path, Size: info.Size(), ModTime: info.ModTime(), Info: info})
	}

	for i := len(subdirs) - 1; i >= 0; i-- {
		w.stack = append(w.stack, subdirs[i])
	}
}

func (w *Walker) record(e FileEntry) {
	w.dirFiles++

	w.opts.Tracker.IncrementFiles(1)
	if e.Size > 0 {
		w.opts.Tracker.AddBytes(uint64(e.Size))
	}

	w.sinceSnapshot++
	if w.sinceSnapshot >= w.opts.ProgressEvery {
		w.sinceSnapshot = 0
		w.emit(e.Path, progress.PhaseWalking)
	}
}

// closeDir emits the large-directory advisory for the directory being
// left, then resets the per-directory counter.
func (w *Walker) closeDir() {
	if w.dirFiles > w.opts.LargeDirThreshold {
		w.warn(fmt.Sprintf("large directory: %s contains %d files", w.dir, w.dirFiles))
	}
	w.dirFiles = 0
}

func (w *Walker) emit(path string, phase progress.Phase) {
	if w.opts.Sink != nil {
		w.opts.Sink(w.opts.Tracker.Snapshot(path, phase, w.warnings))
	}
}

func (w *Walker) warn(msg string) {
	w.warnings = append(w.warnings, msg)
	w.opts.Logger.Warn().Msg(msg)
}

func (w *Walker) finish(err error) bool {
	if !w.done {
		w.closeDir()
	}
	w.done = true
	w.err = err
	return false
}
