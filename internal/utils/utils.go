package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vacpac/internal/bundler"
	"vacpac/internal/parser"
)

var excludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".cache":       true,
	"coverage":     true,
}

// projectFiles are the non-source files whose changes affect a build.
var projectFiles = map[string]bool{
	"package.json": true,
	"vacpac.yaml":  true,
	".env":         true,
}

// WatchDirs returns rootPath and every directory beneath it that is neither a
// well-known dependency/output directory nor ignored by the root .gitignore.
func WatchDirs(rootPath string) ([]string, error) {
	var dirs []string
	ignorePatterns := loadGitIgnorePatterns(rootPath)
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootPath {
			// Always skip well-known heavy/irrelevant directories.
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			if isIgnoredPath(relativeTo(rootPath, path), ignorePatterns) {
				return filepath.SkipDir
			}
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// IsBuildInput reports whether a change to path can alter the plugin build:
// a JS/TS source file or one of the project files, not ignored by .gitignore.
// generated lists root-relative files the build itself writes, such as the
// bundler config; they never count as inputs.
func IsBuildInput(rootPath, path string, generated ...string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, bundler.OutputSuffix) {
		return false
	}
	if !projectFiles[base] && !parser.IsSupportedFile(path) {
		return false
	}
	rel := relativeTo(rootPath, path)
	if strings.HasPrefix(rel, "../") {
		return false
	}
	for _, g := range generated {
		if g != "" && rel == filepath.ToSlash(filepath.Clean(g)) {
			return false
		}
	}
	for _, segment := range strings.Split(rel, "/") {
		if excludedDirs[segment] {
			return false
		}
	}
	return !isIgnoredPath(rel, loadGitIgnorePatterns(rootPath))
}

// IsWatchedDir reports whether dir would be part of WatchDirs(rootPath).
func IsWatchedDir(rootPath, dir string) bool {
	rel := relativeTo(rootPath, dir)
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, "../") {
		return false
	}
	for _, segment := range strings.Split(rel, "/") {
		if excludedDirs[segment] {
			return false
		}
	}
	return !isIgnoredPath(rel, loadGitIgnorePatterns(rootPath))
}

func relativeTo(rootPath, path string) string {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// loadGitIgnorePatterns reads the root-level .gitignore (if present) and
// returns a list of non-empty, non-comment patterns.
func loadGitIgnorePatterns(rootPath string) []string {
	gitIgnorePath := filepath.Join(rootPath, ".gitignore")
	data, err := os.ReadFile(gitIgnorePath)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(data), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// isIgnoredPath applies a minimal subset of .gitignore semantics suitable for
// skipping heavy directories like node_modules/ and common file patterns. It
// treats patterns as root-relative against the provided relPath.
func isIgnoredPath(relPath string, patterns []string) bool {
	relPath = strings.TrimPrefix(relPath, "./")
	relPath = strings.TrimSpace(relPath)
	if relPath == "" {
		return false
	}

	relPath = filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		p := strings.TrimSpace(pattern)
		if p == "" {
			continue
		}

		p = filepath.ToSlash(p)

		// Directory-style pattern, e.g. "node_modules/".
		if strings.HasSuffix(p, "/") {
			dir := strings.TrimSuffix(p, "/")
			dir = strings.TrimPrefix(dir, "./")
			if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
				return true
			}
			continue
		}

		// Use filepath.Match for glob-style patterns.
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}

		// Bare name pattern like "node_modules" or "dist" without slashes or
		// wildcards – treat as directory segment match anywhere in the path.
		if !strings.Contains(p, "/") && !strings.ContainsAny(p, "*?[") {
			segment := "/" + p + "/"
			if strings.Contains("/"+relPath+"/", segment) {
				return true
			}
		}
	}

	return false
}
