package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// PathValidator rejects paths inside protected system directories.
type PathValidator struct {
	rules  Rules
	logger zerolog.Logger
}

// NewPathValidator returns a validator for the given rules.
func NewPathValidator(rules Rules, logger zerolog.Logger) *PathValidator {
	return &PathValidator{rules: rules, logger: logger}
}

// Validate canonicalises path, following symlinks, and checks the result
// against the blocked list. It returns the canonical path on success.
func (v *PathValidator) Validate(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", classifyResolveError(path, err)
	}

	if err := v.CheckBlocked(canonical); err != nil {
		return "", err
	}
	v.warnAdvisory(canonical)
	return canonical, nil
}

// ValidateForDeletion checks a deletion target. Files inherit the
// security context of their containing directory, so the parent is
// checked both as written and, when it exists, in canonical form. The
// target itself is also checked so a protected directory cannot be
// removed through its unprotected parent. A missing parent is not an
// error here; the executor reports such targets as skipped.
func (v *PathValidator) ValidateForDeletion(target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", target, err)
	}
	parent := filepath.Dir(abs)

	if err := v.CheckBlocked(parent); err != nil {
		return err
	}
	if err := v.CheckBlocked(abs); err != nil {
		return err
	}

	canonical, err := filepath.EvalSymlinks(parent)
	switch {
	case err == nil:
		if err := v.CheckBlocked(canonical); err != nil {
			return err
		}
		if err := v.CheckBlocked(filepath.Join(canonical, filepath.Base(abs))); err != nil {
			return err
		}
		v.warnAdvisory(canonical)
		return nil
	case os.IsNotExist(err):
		return nil
	default:
		return classifyResolveError(parent, err)
	}
}

// CheckBlocked compares path against the blocked prefixes without
// touching the filesystem.
func (v *PathValidator) CheckBlocked(path string) error {
	if _, ok := v.match(path, v.rules.Exempt); ok {
		return nil
	}
	if prefix, ok := v.match(path, v.rules.Blocked); ok {
		return fmt.Errorf("%w: access to %s denied (matches protected prefix %s)",
			ErrBlockedSystemDirectory, path, prefix)
	}
	return nil
}

// Advisory returns the sensitive location containing path, if any.
func (v *PathValidator) Advisory(path string) (string, bool) {
	return v.match(path, v.rules.Advisory)
}

func (v *PathValidator) warnAdvisory(path string) {
	if prefix, ok := v.Advisory(path); ok {
		v.logger.Warn().
			Str("path", path).
			Str("location", prefix).
			Msg("path is inside a sensitive location")
	}
}

func (v *PathValidator) match(path string, prefixes []string) (string, bool) {
	p := v.normalize(path)
	for _, prefix := range prefixes {
		if hasPathPrefix(p, v.normalize(prefix)) {
			return prefix, true
		}
	}
	return "", false
}

func (v *PathValidator) normalize(p string) string {
	if v.rules.CaseInsensitive {
		p = strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	}
	return p
}

// hasPathPrefix reports whether p equals prefix or lies beneath it, so
// that "/usr" does not match "/usrdata".
func hasPathPrefix(p, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return strings.HasPrefix(p, "/")
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

func classifyResolveError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
}
