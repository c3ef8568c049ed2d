package pkgmap

import (
	"context"
	"sort"
	"strings"

	"github.com/capsentry/capsentry/fsio"
)

var sourceExtensions = map[string]bool{
	".js":  true,
	".mjs": true,
	".cjs": true,
}

// SourceFiles recursively lists a package's analyzable source files, per
// spec.md §4.7: only .js/.mjs/.cjs files, never descending into
// node_modules, skipping hidden directories, and honoring .gitignore.
func SourceFiles(ctx context.Context, reader fsio.Reader, rootPath string) ([]string, error) {
	ignore := LoadGitignore(ctx, reader, rootPath)
	var files []string
	if err := walkDir(ctx, reader, rootPath, rootPath, ignore, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func walkDir(ctx context.Context, reader fsio.Reader, rootPath, dir string, ignore *Gitignore, out *[]string) error {
	entries, err := reader.List(ctx, dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name, ".") {
			continue
		}
		path := join(dir, entry.Name)
		rel := strings.TrimPrefix(strings.TrimPrefix(path, rootPath), "/")
		if ignore.ShouldIgnore(rel) {
			continue
		}
		if entry.IsDir {
			if entry.Name == "node_modules" {
				continue
			}
			if err := walkDir(ctx, reader, rootPath, path, ignore, out); err != nil {
				return err
			}
			continue
		}
		if hasSourceExtension(entry.Name) {
			*out = append(*out, path)
		}
	}
	return nil
}

func hasSourceExtension(name string) bool {
	for ext := range sourceExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
