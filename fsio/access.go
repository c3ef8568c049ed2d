// Package fsio is the single seam through which the rest of the module reads
// files on disk. It exists so the AST adapter and the dependency mapper never
// call os.ReadFile directly, keeping IO swappable and mockable in one place.
package fsio

import (
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
)

// Entry is one directory entry returned by Reader.List.
type Entry struct {
	Name  string
	IsDir bool
}

// Reader reads file contents and lists directories by local path.
type Reader interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	List(ctx context.Context, path string) ([]Entry, error)
}

// Local is the default Reader, backed by afs's local storage service.
type Local struct {
	service afs.Service
}

// New creates a Local reader.
func New() *Local {
	return &Local{service: afs.New()}
}

// Read returns the full contents of the file at path.
func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := l.service.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fsio: read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path exists on disk.
func (l *Local) Exists(ctx context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// List returns the immediate children of the directory at path. afs.Service
// includes the listed directory itself as the first returned object (its
// Name() is the directory's own base name, not ""), so that entry is
// dropped by position rather than by name.
func (l *Local) List(ctx context.Context, path string) ([]Entry, error) {
	objects, err := l.service.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fsio: list %s: %w", path, err)
	}
	if len(objects) == 0 {
		return nil, nil
	}
	entries := make([]Entry, 0, len(objects)-1)
	for _, obj := range objects[1:] {
		name := obj.Name()
		if name == "" || name == "." {
			continue
		}
		entries = append(entries, Entry{Name: name, IsDir: obj.IsDir()})
	}
	return entries, nil
}
