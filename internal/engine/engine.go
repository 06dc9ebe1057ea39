// Package engine wires a single scan together: the root is validated,
// walked once, and every file is fed to the registered collectors.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/dupes"
	"github.com/lu-zhengda/reclaim/internal/mounts"
	"github.com/lu-zhengda/reclaim/internal/progress"
	"github.com/lu-zhengda/reclaim/internal/safety"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/lu-zhengda/reclaim/internal/walker"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/disk"
)

// ScanRequest is one scan of one root.
type ScanRequest struct {
	RootPath       string
	FollowSymlinks bool
	Token          *cancel.Token
}

// LargeFile is a file above the configured threshold together with its
// share of all bytes scanned.
type LargeFile struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Share   float64   `json:"share"`
}

// Result is everything a scan found.
type Result struct {
	Root       string         `json:"root"`
	Files      uint64         `json:"files"`
	Dirs       uint64         `json:"dirs"`
	Bytes      uint64         `json:"bytes"`
	Duplicates []dupes.Group  `json:"duplicates"`
	LargeFiles []LargeFile    `json:"large_files"`
	Warnings   []string       `json:"warnings"`
	Cycles     []string       `json:"symlink_cycles"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	Cancelled  bool           `json:"cancelled"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Collector receives every file of a scan. Finish runs once the walk has
// ended and may add its findings to the result.
type Collector interface {
	Name() string
	Add(walker.FileEntry)
	Finish(token *cancel.Token, res *Result) error
}

type Options struct {
	Validator         *safety.PathValidator
	Mounts            mounts.Inspector
	Ignore            walker.Matcher
	Logger            zerolog.Logger
	ProgressEvery     int
	LargeDirThreshold int
	MinDuplicateSize  int64
	LargeFileMin      int64
	HashWorkers       int
	// Usage returns the used bytes of the filesystem mounted at path. It
	// seeds the progress total when the root is a mount point.
	Usage func(path string) (uint64, error)
}

type Engine struct {
	opts       Options
	collectors []func() Collector
}

func New(opts Options) *Engine {
	if opts.Validator == nil {
		opts.Validator = safety.NewPathValidator(safety.DefaultRules(utils.HomeDir()), opts.Logger)
	}
	if opts.Usage == nil {
		opts.Usage = diskUsed
	}
	return &Engine{opts: opts}
}

// Register adds a collector factory. A fresh collector is built for
// every scan.
func (e *Engine) Register(factory func() Collector) {
	e.collectors = append(e.collectors, factory)
}

// Scan validates the root, walks it and runs the collectors. When the
// token is cancelled the partial result is returned together with
// cancel.ErrCancelled, and the sink's last snapshot has phase cancelled.
func (e *Engine) Scan(req ScanRequest, sink progress.Sink) (*Result, error) {
	token := req.Token
	if token == nil {
		token = cancel.New()
	}

	root, err := e.opts.Validator.Validate(req.RootPath)
	if err != nil {
		return nil, fmt.Errorf("invalid scan root: %w", err)
	}

	tracker := progress.NewTracker()
	e.seedTotal(root, tracker)

	detector := dupes.NewDetector(e.opts.MinDuplicateSize, e.opts.Logger)
	if e.opts.HashWorkers > 0 {
		detector.Workers = e.opts.HashWorkers
	}
	large := &largeFiles{min: e.opts.LargeFileMin}
	extras := make([]Collector, 0, len(e.collectors))
	for _, f := range e.collectors {
		extras = append(extras, f())
	}

	w := walker.New(root, walker.Options{
		FollowSymlinks:    req.FollowSymlinks,
		Token:             token,
		Tracker:           tracker,
		Sink:              sink,
		ProgressEvery:     e.opts.ProgressEvery,
		LargeDirThreshold: e.opts.LargeDirThreshold,
		Ignore:            e.opts.Ignore,
		Mounts:            e.opts.Mounts,
		Logger:            e.opts.Logger,
	})

	for w.Next() {
		entry := w.Entry()
		detector.Add(entry)
		large.Add(entry)
		for _, c := range extras {
			c.Add(entry)
		}
	}

	res := &Result{Root: root}
	var collectorWarnings []string
	finish := func(phase progress.Phase) {
		res.Files = tracker.Files()
		res.Dirs = tracker.Dirs()
		res.Bytes = tracker.Bytes()
		res.Warnings = append(w.Warnings(), collectorWarnings...)
		res.Cycles = w.Cycles()
		res.Elapsed = tracker.Elapsed()
		res.Cancelled = phase == progress.PhaseCancelled
		if sink != nil {
			sink(tracker.Snapshot("", phase, res.Warnings))
		}
	}

	if err := w.Err(); err != nil {
		if errors.Is(err, cancel.ErrCancelled) {
			finish(progress.PhaseCancelled)
			return res, err
		}
		return nil, fmt.Errorf("scan of %s failed: %w", root, err)
	}

	if sink != nil {
		sink(tracker.Snapshot(root, progress.PhaseHashing, w.Warnings()))
		detector.OnHashed = func(int) {
			sink(tracker.Snapshot(root, progress.PhaseHashing, w.Warnings()))
		}
	}
	groups, err := detector.Groups(token)
	if err != nil {
		if errors.Is(err, cancel.ErrCancelled) {
			finish(progress.PhaseCancelled)
			return res, err
		}
		return nil, fmt.Errorf("duplicate detection failed: %w", err)
	}
	res.Duplicates = groups
	res.LargeFiles = large.sorted(tracker.Bytes())

	for _, c := range extras {
		if err := c.Finish(token, res); err != nil {
			if errors.Is(err, cancel.ErrCancelled) {
				finish(progress.PhaseCancelled)
				return res, err
			}
			e.opts.Logger.Warn().Err(err).Str("collector", c.Name()).Msg("collector failed")
			collectorWarnings = append(collectorWarnings, fmt.Sprintf("%s: %v", c.Name(), err))
		}
	}

	finish(progress.PhaseComplete)
	return res, nil
}

// seedTotal uses the filesystem's used bytes as the progress total when
// the root is the mount point itself. Scans of a subdirectory fall back
// to the entry-count estimate.
func (e *Engine) seedTotal(root string, tracker *progress.Tracker) {
	if e.opts.Mounts == nil {
		return
	}
	info, err := e.opts.Mounts.Inspect(root)
	if err != nil || info.MountPoint == "" || filepath.Clean(info.MountPoint) != root {
		return
	}
	used, err := e.opts.Usage(root)
	if err != nil {
		e.opts.Logger.Debug().Err(err).Str("path", root).Msg("disk usage unavailable")
		return
	}
	tracker.SetTotalEstimate(used)
}

func diskUsed(path string) (uint64, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return u.Used, nil
}

type largeFiles struct {
	min   int64
	files []LargeFile
}

func (l *largeFiles) Add(e walker.FileEntry) {
	if l.min <= 0 || e.Size < l.min {
		return
	}
	l.files = append(l.files, LargeFile{Path: e.Path, Size: e.Size, ModTime: e.ModTime})
}

// sorted fills in each file's share of total and orders by share, largest
// first. An empty scan gives NaN shares, which CompareFloat sorts last.
func (l *largeFiles) sorted(total uint64) []LargeFile {
	out := make([]LargeFile, len(l.files))
	copy(out, l.files)
	for i := range out {
		out[i].Share = float64(out[i].Size) / float64(total)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utils.CompareFloat(out[i].Share, out[j].Share) > 0
	})
	return out
}
