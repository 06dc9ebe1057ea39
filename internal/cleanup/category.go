package cleanup

import (
	"path/filepath"
	"strings"
)

const (
	CategoryDependencyCache = "dependency_cache"
	CategoryBuildCache      = "build_cache"
	CategoryGitMetadata     = "git_metadata"
	CategoryUserSelected    = "user_selected"
)

var dependencyDirs = map[string]bool{
	"node_modules":  true,
	"vendor":        true,
	".venv":         true,
	"venv":          true,
	"site-packages": true,
	"Pods":          true,
	".m2":           true,
	".bundle":       true,
}

var buildDirs = map[string]bool{
	"target":        true,
	"build":         true,
	"dist":          true,
	".next":         true,
	".nuxt":         true,
	"DerivedData":   true,
	"__pycache__":   true,
	".gradle":       true,
	".cache":        true,
	".turbo":        true,
	".parcel-cache": true,
}

// Category infers a label for an audit record from the path's
// components. It is advisory only.
func Category(path string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for _, p := range parts {
		if p == ".git" {
			return CategoryGitMetadata
		}
	}
	for _, p := range parts {
		if dependencyDirs[p] {
			return CategoryDependencyCache
		}
	}
	// "go/pkg/mod" and ".cargo/registry" are spread over several components.
	slashed := "/" + strings.Join(parts, "/") + "/"
	if strings.Contains(slashed, "/pkg/mod/") || strings.Contains(slashed, "/.cargo/registry/") {
		return CategoryDependencyCache
	}
	for _, p := range parts {
		if buildDirs[p] {
			return CategoryBuildCache
		}
	}
	return CategoryUserSelected
}

// isCloudPath reports whether path lives in a cloud-synced folder whose
// placeholders can be briefly locked by the sync agent.
func isCloudPath(path string) bool {
	slashed := filepath.ToSlash(path)
	return strings.Contains(slashed, "/Library/Mobile Documents/") ||
		strings.Contains(slashed, "com~apple~CloudDocs") ||
		strings.HasSuffix(slashed, ".icloud")
}
