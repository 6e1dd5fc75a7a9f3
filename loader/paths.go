package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// resolvePattern expands a search path pattern to directories.
func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("path is not a directory: %s", absPath)
		}
		return []string{absPath}, nil
	}

	absPattern, err := makeAbsolutePattern(pattern)
	if err != nil {
		return nil, err
	}

	// Use doublestar for ** support
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var dirs []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// makeAbsolutePattern makes the literal prefix of a pattern absolute and
// keeps the glob part as written.
func makeAbsolutePattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return pattern, nil
	}
	idx := strings.IndexAny(pattern, "*?[{")
	prefix := pattern[:idx]
	split := strings.LastIndexAny(prefix, `/\`)
	dir, rest := ".", pattern
	if split >= 0 {
		dir, rest = pattern[:split], pattern[split+1:]
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(absDir) + "/" + rest, nil
}

// fileCandidates lists the files tried for name inside dir: the name itself
// and, without a known extension, the name with each extension.
func fileCandidates(dir, name string, exts []string) []string {
	candidates := []string{filepath.Join(dir, name)}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return candidates
		}
	}
	for _, e := range exts {
		candidates = append(candidates, filepath.Join(dir, name+e))
	}
	return candidates
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
