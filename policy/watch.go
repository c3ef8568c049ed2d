package policy

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs onChange every time a source (.js/.mjs/.cjs), manifest, or
// lockfile under rootPath changes, blocking until ctx is cancelled.
// Directories named node_modules and hidden directories are not watched, so
// changes inside installed dependencies do not trigger a re-run. This is
// the ambient-tooling extension behind the -watch flag (SPEC_FULL.md §6);
// it has no bearing on the extractor's own correctness.
func Watch(ctx context.Context, rootPath string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, rootPath); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := statDir(event.Name); err == nil && info {
					_ = watcher.Add(event.Name)
				}
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("policy: watch error: %v", err)
		}
	}
}

func relevant(name string) bool {
	for _, ext := range []string{".js", ".mjs", ".cjs"} {
		if hasSuffix(name, ext) {
			return true
		}
	}
	return hasSuffix(name, "package.json") || hasSuffix(name, "package-lock.json") || hasSuffix(name, "npm-shrinkwrap.json")
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "node_modules" || (d.Name() != filepath.Base(root) && len(d.Name()) > 0 && d.Name()[0] == '.') {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
