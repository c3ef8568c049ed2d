// Package ast wraps the third-party tree-sitter JavaScript grammar,
// producing a rooted AST for a source file or reporting a non-fatal parse
// failure, per spec.md §4.1.
package ast

import (
	"bytes"
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/capsentry/capsentry/fsio"
)

// Tree is a parsed file: its AST root plus the exact bytes the AST indexes
// into. The shebang, if any, has already been stripped before parsing, but
// Source keeps the stripped form so byte offsets line up with the AST.
type Tree struct {
	Root   *sitter.Node
	Source []byte
	Path   string

	// raw keeps the underlying sitter.Tree alive (and is Close()d) since the
	// nodes in Root are views into its internal arena.
	raw *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

// Adapter parses JavaScript source files into Trees.
type Adapter struct {
	reader           fsio.Reader
	includeLocations bool
}

// New creates an Adapter. includeLocations controls whether downstream
// callers are expected to retain source-location metadata (the adapter
// itself always produces nodes with position info; this flag is surfaced so
// callers building debug output know whether it was requested).
func New(reader fsio.Reader, includeLocations bool) *Adapter {
	return &Adapter{reader: reader, includeLocations: includeLocations}
}

// IncludeLocations reports whether this adapter was configured to retain
// source locations for debugging.
func (a *Adapter) IncludeLocations() bool {
	return a.includeLocations
}

// Parse reads and parses the file at path. A parse failure returns a nil
// Tree and a non-nil error; callers must treat that as non-fatal per
// spec.md §4.1/§7 and skip the file.
func (a *Adapter) Parse(ctx context.Context, path string) (*Tree, error) {
	source, err := a.reader.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ast: read %s: %w", path, err)
	}

	source = stripShebang(source)

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	raw, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("ast: parse %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("ast: parse %s: no tree produced", path)
	}

	root := raw.RootNode()
	if root == nil || root.HasError() {
		// A root node riddled with ERROR nodes is still usable for recovery,
		// but a root that tree-sitter failed to produce at all is a hard
		// parse failure.
		if root == nil {
			raw.Close()
			return nil, fmt.Errorf("ast: parse %s: empty tree", path)
		}
	}

	return &Tree{Root: root, Source: source, Path: path, raw: raw}, nil
}

// stripShebang removes a leading "#!...\n" line, per spec.md §4.1's shebang
// tolerance rule. The bytes are dropped, not blanked out, so the AST's byte
// offsets are relative to the stripped buffer. A file consisting only of a
// shebang line with no newline yields an empty buffer.
func stripShebang(source []byte) []byte {
	if !bytes.HasPrefix(source, []byte("#!")) {
		return source
	}
	idx := bytes.IndexByte(source, '\n')
	if idx == -1 {
		return nil
	}
	return source[idx+1:]
}
