package progress

import (
	"sync/atomic"
	"time"
)

// Phase names the stage a scan is in when a snapshot is taken.
type Phase string

const (
	PhaseWalking   Phase = "walking"
	PhaseHashing   Phase = "hashing"
	PhaseComplete  Phase = "complete"
	PhaseCancelled Phase = "cancelled"
)

// fallbackEntriesPerPercent is the number of files+dirs that count as one
// percent when no total estimate is known.
const fallbackEntriesPerPercent = 1000

// ScanProgress is a point-in-time view of a scan. It is built fresh by
// Tracker.Snapshot and never modified afterwards.
type ScanProgress struct {
	CurrentPath    string   `json:"current_path"`
	FilesScanned   uint64   `json:"files_scanned"`
	DirsScanned    uint64   `json:"dirs_scanned"`
	BytesProcessed uint64   `json:"bytes_processed"`
	ETASeconds     *float64 `json:"eta_seconds,omitempty"`
	Percentage     float64  `json:"percentage"`
	Phase          Phase    `json:"phase"`
	Warnings       []string `json:"warnings"`
}

// Sink receives snapshots as a scan progresses.
type Sink func(ScanProgress)

// Tracker holds independent atomic counters for one scan. Fields may be
// read at slightly different moments by Snapshot; progress is advisory.
type Tracker struct {
	files         atomic.Uint64
	dirs          atomic.Uint64
	bytes         atomic.Uint64
	totalEstimate atomic.Uint64

	start time.Time
	now   func() time.Time
}

// NewTracker starts the elapsed-time clock.
func NewTracker() *Tracker {
	return newTrackerWithClock(time.Now)
}

func newTrackerWithClock(now func() time.Time) *Tracker {
	return &Tracker{start: now(), now: now}
}

func (t *Tracker) IncrementFiles(n uint64) { t.files.Add(n) }
func (t *Tracker) IncrementDirs(n uint64)  { t.dirs.Add(n) }
func (t *Tracker) AddBytes(n uint64)       { t.bytes.Add(n) }

// SetTotalEstimate sets the expected byte total. Zero means unknown.
func (t *Tracker) SetTotalEstimate(total uint64) { t.totalEstimate.Store(total) }

func (t *Tracker) Files() uint64 { return t.files.Load() }
func (t *Tracker) Dirs() uint64  { return t.dirs.Load() }
func (t *Tracker) Bytes() uint64 { return t.bytes.Load() }

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Snapshot reads the counters and derives percentage and ETA. The
// warnings slice is copied so later appends by the caller do not leak
// into an emitted snapshot.
func (t *Tracker) Snapshot(currentPath string, phase Phase, warnings []string) ScanProgress {
	files := t.files.Load()
	dirs := t.dirs.Load()
	bytes := t.bytes.Load()
	total := t.totalEstimate.Load()

	var pct float64
	if total > 0 {
		pct = float64(bytes) / float64(total) * 100
	} else {
		pct = float64(files+dirs) / fallbackEntriesPerPercent
	}
	if phase == PhaseComplete {
		pct = 100
	}
	pct = clamp(pct, 0, 100)

	w := make([]string, len(warnings))
	copy(w, warnings)

	return ScanProgress{
		CurrentPath:    currentPath,
		FilesScanned:   files,
		DirsScanned:    dirs,
		BytesProcessed: bytes,
		ETASeconds:     estimateETA(t.Elapsed().Seconds(), pct),
		Percentage:     pct,
		Phase:          phase,
		Warnings:       w,
	}
}

// estimateETA extrapolates linearly from the elapsed time. It returns nil
// outside the open interval (0, 100).
func estimateETA(elapsed, pct float64) *float64 {
	if pct <= 0 || pct >= 100 {
		return nil
	}
	eta := elapsed * (100 - pct) / pct
	return &eta
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
