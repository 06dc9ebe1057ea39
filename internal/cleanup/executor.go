// Package cleanup deletes user-selected paths and confirms that each one
// is really gone before reporting it.
package cleanup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lu-zhengda/reclaim/internal/cancel"
	"github.com/lu-zhengda/reclaim/internal/history"
	"github.com/lu-zhengda/reclaim/internal/trash"
	"github.com/lu-zhengda/reclaim/internal/utils"
	"github.com/rs/zerolog"
)

// ErrDeletionFailed is wrapped by every per-path deletion error, including
// a path that is still present after a reported success.
var ErrDeletionFailed = errors.New("deletion failed")

const (
	DefaultVerifyDelay  = 100 * time.Millisecond
	DefaultCloudRetries = 3
	DefaultRetryBackoff = 100 * time.Millisecond
)

// Deleter abstracts permanent removal so tests can observe it.
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
}

type osDeleter struct{}

func (osDeleter) Remove(path string) error    { return os.Remove(path) }
func (osDeleter) RemoveAll(path string) error { return os.RemoveAll(path) }

// Failure pairs a path with the reason it could not be deleted.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{f.Path, msg})
}

// Result partitions the requested paths. Every input path appears in
// exactly one of Deleted, Skipped or Errors.
type Result struct {
	Deleted    []string  `json:"deleted"`
	Skipped    []string  `json:"skipped"`
	Errors     []Failure `json:"errors"`
	BytesFreed int64     `json:"bytes_freed"`
	DryRun     bool      `json:"dry_run"`
}

// Executor runs deletions one path at a time on the calling goroutine.
//
// VerifyDelay, CloudRetries and RetryBackoff are tuning knobs. The
// post-deletion check narrows the window in which a stale success can be
// reported but does not close it: a slow filesystem may still show the
// path, and another process may recreate it after the check.
type Executor struct {
	Deleter Deleter
	Trasher trash.Trasher
	// Audit receives one record per confirmed deletion. Nil disables it.
	Audit  *history.Log
	Token  *cancel.Token
	Logger zerolog.Logger

	VerifyDelay  time.Duration
	CloudRetries int
	RetryBackoff time.Duration

	now func() time.Time
}

func NewExecutor(trasher trash.Trasher, audit *history.Log, logger zerolog.Logger) *Executor {
	return &Executor{
		Deleter:      osDeleter{},
		Trasher:      trasher,
		Audit:        audit,
		Logger:       logger,
		VerifyDelay:  DefaultVerifyDelay,
		CloudRetries: DefaultCloudRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// Delete processes paths in order. A failure on one path never stops the
// batch; cancelling the token does, and every path not yet reached is
// reported as an error wrapping cancel.ErrCancelled.
func (e *Executor) Delete(paths []string, dryRun, useTrash bool) Result {
	res := Result{DryRun: dryRun}
	token := e.token()

	for i, path := range paths {
		if token.IsCancelled() {
			for _, rest := range paths[i:] {
				res.Errors = append(res.Errors, Failure{Path: rest, Err: cancel.ErrCancelled})
			}
			break
		}

		if dryRun {
			if size, err := utils.PathSize(path); err == nil {
				res.BytesFreed += size
			}
			res.Deleted = append(res.Deleted, path)
			continue
		}

		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				e.Logger.Debug().Str("path", path).Msg("already gone, skipping")
				res.Skipped = append(res.Skipped, path)
				continue
			}
			res.Errors = append(res.Errors, Failure{Path: path, Err: fmt.Errorf("%w: %v", ErrDeletionFailed, err)})
			continue
		}

		size, err := utils.PathSize(path)
		if err != nil {
			e.Logger.Debug().Err(err).Str("path", path).Msg("cannot size path")
		}

		method, err := e.deleteOne(path, useTrash)
		if err == nil {
			err = e.verify(path, method)
		}
		if err != nil {
			e.Logger.Warn().Err(err).Str("path", path).Msg("deletion failed")
			res.Errors = append(res.Errors, Failure{Path: path, Err: err})
			continue
		}

		res.Deleted = append(res.Deleted, path)
		res.BytesFreed += size
		e.record(path, size, method)
	}

	return res
}

func (e *Executor) deleteOne(path string, useTrash bool) (string, error) {
	if !useTrash {
		if err := e.deleter().RemoveAll(path); err != nil {
			return history.MethodPermanent, fmt.Errorf("%w: %v", ErrDeletionFailed, err)
		}
		return history.MethodPermanent, nil
	}

	if e.Trasher == nil {
		return history.MethodTrash, fmt.Errorf("%w: no trash available", ErrDeletionFailed)
	}

	attempts := 1
	if isCloudPath(path) && e.CloudRetries > 1 {
		attempts = e.CloudRetries
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = e.Trasher.MoveToTrash(path); err == nil {
			return history.MethodTrash, nil
		}
		if attempt < attempts {
			e.Logger.Debug().Err(err).Str("path", path).Int("attempt", attempt).Msg("cloud path busy, retrying")
			if !e.token().Sleep(e.RetryBackoff * time.Duration(attempt)) {
				return history.MethodTrash, fmt.Errorf("%w: gave up after attempt %d: %v", cancel.ErrCancelled, attempt, err)
			}
		}
	}
	return history.MethodTrash, fmt.Errorf("%w: %v", ErrDeletionFailed, err)
}

// verify waits VerifyDelay and then checks that path no longer exists.
// Cancelling the token cuts the wait short; the check still runs because
// the removal has already happened.
func (e *Executor) verify(path, method string) error {
	e.token().Sleep(e.VerifyDelay)
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		if method == history.MethodTrash {
			return fmt.Errorf("%w: moved to trash but still present", ErrDeletionFailed)
		}
		return fmt.Errorf("%w: still present after removal", ErrDeletionFailed)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("%w: cannot verify removal: %v", ErrDeletionFailed, err)
	}
}

// record appends the audit entry. A failed write is logged; the deletion
// itself already happened and stays reported as such.
func (e *Executor) record(path string, size int64, method string) {
	if e.Audit == nil {
		return
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	err := e.Audit.Append(history.DeletionRecord{
		Path:      path,
		SizeBytes: size,
		DeletedAt: now().UTC(),
		Category:  Category(path),
		Method:    method,
	})
	if err != nil {
		e.Logger.Error().Err(err).Str("path", path).Msg("failed to write audit record")
	}
}

func (e *Executor) token() *cancel.Token {
	if e.Token == nil {
		e.Token = cancel.New()
	}
	return e.Token
}

func (e *Executor) deleter() Deleter {
	if e.Deleter == nil {
		return osDeleter{}
	}
	return e.Deleter
}
