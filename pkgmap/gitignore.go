package pkgmap

import (
	"bufio"
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/capsentry/capsentry/fsio"
)

// Gitignore matches paths against the ignore/negation patterns of a
// .gitignore file, adapted from the analogous hand-rolled matcher in the
// teacher repo to use real glob semantics via doublestar instead of a
// bespoke wildcard matcher.
type Gitignore struct {
	ignore   []string
	negation []string
}

// LoadGitignore reads rootPath/.gitignore, if present. A missing file
// yields an empty, always-permissive matcher.
func LoadGitignore(ctx context.Context, reader fsio.Reader, rootPath string) *Gitignore {
	g := &Gitignore{}
	data, err := reader.Read(ctx, join(rootPath, ".gitignore"))
	if err != nil {
		return g
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			g.negation = append(g.negation, normalizePattern(strings.TrimPrefix(line, "!")))
		} else {
			g.ignore = append(g.ignore, normalizePattern(line))
		}
	}
	return g
}

// normalizePattern expands a gitignore-style pattern to a doublestar
// pattern that also matches the path nested at any depth, matching
// .gitignore's directory-relative semantics for patterns with no leading
// slash.
func normalizePattern(pattern string) string {
	pattern = strings.TrimSuffix(pattern, "/")
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if !anchored && !strings.Contains(pattern, "/") {
		return "**/" + pattern
	}
	return pattern
}

// ShouldIgnore reports whether relPath (slash-separated, relative to the
// package root) is excluded.
func (g *Gitignore) ShouldIgnore(relPath string) bool {
	ignored := false
	for _, pattern := range g.ignore {
		if matches(pattern, relPath) {
			ignored = true
			break
		}
	}
	if !ignored {
		return false
	}
	for _, pattern := range g.negation {
		if matches(pattern, relPath) {
			return false
		}
	}
	return true
}

func matches(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	// A directory-style pattern ("dist") should also match files nested
	// underneath it ("dist/bundle.js"); doublestar.Match alone is exact.
	ok, err = doublestar.Match(pattern+"/**", path)
	return err == nil && ok
}
