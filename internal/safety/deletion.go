package safety

import (
	"fmt"
	"os"

	"github.com/lu-zhengda/reclaim/internal/utils"
)

// Batch ceilings enforced before any deletion starts.
const (
	MaxBatchDeleteCount       = 10_000
	MaxBatchDeleteSize  int64 = 100 * utils.GB
)

// DeletionValidator performs the pre-flight checks for a deletion batch.
type DeletionValidator struct {
	paths    *PathValidator
	maxCount int
	maxSize  int64
	sizeOf   func(string) (int64, error)
}

// DeletionOption customises a DeletionValidator.
type DeletionOption func(*DeletionValidator)

// WithLimits overrides the batch ceilings.
func WithLimits(maxCount int, maxSize int64) DeletionOption {
	return func(d *DeletionValidator) {
		d.maxCount = maxCount
		d.maxSize = maxSize
	}
}

// WithSizeFunc overrides how on-disk sizes are measured.
func WithSizeFunc(fn func(string) (int64, error)) DeletionOption {
	return func(d *DeletionValidator) { d.sizeOf = fn }
}

// NewDeletionValidator wraps a PathValidator with the default limits.
func NewDeletionValidator(paths *PathValidator, opts ...DeletionOption) *DeletionValidator {
	d := &DeletionValidator{
		paths:    paths,
		maxCount: MaxBatchDeleteCount,
		maxSize:  MaxBatchDeleteSize,
		sizeOf:   utils.PathSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate runs, in order, the count ceiling, the per-path security check
// and the size ceiling. It returns the total on-disk size of the targets
// that currently exist. An empty batch is valid.
func (d *DeletionValidator) Validate(paths []string) (int64, error) {
	if len(paths) > d.maxCount {
		return 0, fmt.Errorf("%w: %d paths requested, maximum is %d",
			ErrTooManyFiles, len(paths), d.maxCount)
	}

	for _, p := range paths {
		if err := d.paths.ValidateForDeletion(p); err != nil {
			return 0, &ViolationError{Path: p, Err: err}
		}
	}

	var total int64
	for _, p := range paths {
		size, err := d.sizeOf(p)
		if err != nil {
			if !os.IsNotExist(err) {
				d.paths.logger.Warn().Err(err).Str("path", p).Msg("could not measure deletion target")
			}
			continue
		}
		total += size
		if total > d.maxSize {
			return total, fmt.Errorf("%w: %s exceeds the %s limit",
				ErrTooLarge, utils.FormatSize(total), utils.FormatSize(d.maxSize))
		}
	}

	return total, nil
}
