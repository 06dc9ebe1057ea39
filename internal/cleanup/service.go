package cleanup

import (
	"fmt"

	"github.com/lu-zhengda/reclaim/internal/safety"
)

// Request is a batch of user-selected paths to delete.
type Request struct {
	Paths    []string `json:"paths"`
	DryRun   bool     `json:"dry_run"`
	UseTrash bool     `json:"use_trash"`
}

// Service validates a whole batch before deleting any of it.
type Service struct {
	Validator *safety.DeletionValidator
	Executor  *Executor
}

func NewService(v *safety.DeletionValidator, e *Executor) *Service {
	return &Service{Validator: v, Executor: e}
}

// Run rejects the batch outright if any limit or protected path is hit;
// otherwise it hands every path to the executor.
func (s *Service) Run(req Request) (Result, error) {
	if _, err := s.Validator.Validate(req.Paths); err != nil {
		return Result{DryRun: req.DryRun}, fmt.Errorf("cleanup request rejected: %w", err)
	}
	return s.Executor.Delete(req.Paths, req.DryRun, req.UseTrash), nil
}
