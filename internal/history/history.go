// Package history is the append-only ledger of confirmed deletions. Each
// record is one JSON object on its own line.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	MethodTrash     = "trash"
	MethodPermanent = "permanent"
)

// maxRecordSize bounds a single line. Anything longer is not a record this
// package wrote.
const maxRecordSize = 1 << 20

// DeletionRecord is one confirmed deletion.
type DeletionRecord struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	DeletedAt time.Time `json:"deleted_at"`
	Category  string    `json:"category"`
	Method    string    `json:"method"`
	Restored  bool      `json:"restored"`
}

// CategoryStats holds aggregate statistics for a single category.
type CategoryStats struct {
	BytesFreed int64 `json:"bytes_freed"`
	Deletions  int   `json:"deletions"`
}

// Stats holds aggregate deletion statistics.
type Stats struct {
	TotalFreed     int64                    `json:"total_freed"`
	TotalDeletions int                      `json:"total_deletions"`
	ByCategory     map[string]CategoryStats `json:"by_category"`
	ByMethod       map[string]CategoryStats `json:"by_method"`
	Recent         []DeletionRecord         `json:"recent"`
}

// Log reads and appends deletion records.
type Log struct {
	fs     afero.Fs
	path   string
	logger zerolog.Logger
}

// New creates a Log backed by fs at path.
func New(fs afero.Fs, path string, logger zerolog.Logger) *Log {
	return &Log{fs: fs, path: path, logger: logger}
}

// NewOS creates a Log on the real filesystem.
func NewOS(path string, logger zerolog.Logger) *Log {
	return New(afero.NewOsFs(), path, logger)
}

// DefaultPath returns ~/.local/share/reclaim/deletions.jsonl.
func DefaultPath() string {
	return filepath.Join(utils.DataDir(), "deletions.jsonl")
}

func (l *Log) Path() string { return l.path }

// Append writes one record. The file is opened and closed for every call
// so concurrent writers only ever interleave whole lines.
func (l *Log) Append(r DeletionRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal deletion record: %w", err)
	}
	data = append(data, '\n')

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}
	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}

// ReadAll returns every parseable record in file order. Malformed lines
// are logged and skipped. A missing file yields no records.
func (l *Log) ReadAll() ([]DeletionRecord, error) {
	f, err := l.fs.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []DeletionRecord
	r := bufio.NewReader(f)
	line := 0
	for {
		text, readErr := r.ReadBytes('\n')
		if len(text) > 0 {
			line++
			if rec, ok := l.parse(bytes.TrimSpace(text), line); ok {
				records = append(records, rec)
			}
		}
		if readErr == io.EOF {
			return records, nil
		}
		if readErr != nil {
			return records, fmt.Errorf("failed to read audit log: %w", readErr)
		}
	}
}

// parse decodes one line. Blank lines are skipped silently, oversized and
// malformed ones with a warning.
func (l *Log) parse(text []byte, line int) (DeletionRecord, bool) {
	var rec DeletionRecord
	if len(text) == 0 {
		return rec, false
	}
	if len(text) > maxRecordSize {
		l.logger.Warn().Int("line", line).Int("bytes", len(text)).Str("file", l.path).Msg("skipping oversized audit record")
		return rec, false
	}
	if err := json.Unmarshal(text, &rec); err != nil {
		l.logger.Warn().Err(err).Int("line", line).Str("file", l.path).Msg("skipping malformed audit record")
		return rec, false
	}
	return rec, true
}

// Clear removes the log file. A missing file is not an error.
func (l *Log) Clear() error {
	if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	return nil
}

// Stats computes aggregate statistics from the log.
func (l *Log) Stats() (Stats, error) {
	s := Stats{
		ByCategory: make(map[string]CategoryStats),
		ByMethod:   make(map[string]CategoryStats),
	}
	records, err := l.ReadAll()
	if err != nil {
		return s, err
	}

	s.TotalDeletions = len(records)
	for _, r := range records {
		s.TotalFreed += r.SizeBytes

		cs := s.ByCategory[r.Category]
		cs.BytesFreed += r.SizeBytes
		cs.Deletions++
		s.ByCategory[r.Category] = cs

		ms := s.ByMethod[r.Method]
		ms.BytesFreed += r.SizeBytes
		ms.Deletions++
		s.ByMethod[r.Method] = ms
	}

	// Sort records by timestamp descending for recent list.
	sorted := make([]DeletionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DeletedAt.After(sorted[j].DeletedAt)
	})

	limit := 5
	if len(sorted) < limit {
		limit = len(sorted)
	}
	s.Recent = sorted[:limit]

	return s, nil
}
