package extract

import (
	"context"
	"fmt"

	"github.com/capsentry/capsentry/ast"
)

// File parses and extracts the capability set of a single JavaScript source
// file, per spec.md §4.1-4.6. A parse failure is returned as an error; per
// spec.md §7 the caller must treat that as non-fatal (log and skip), not
// abort the whole run — unlike an ErrUnknownPatternShape bubbling up from
// Walk, which is a hard abort.
func File(ctx context.Context, adapter *ast.Adapter, path string) (*Result, error) {
	tree, err := adapter.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	defer tree.Close()

	result := NewResult()
	if err := Walk(tree.Root, tree.Source, result); err != nil {
		return nil, fmt.Errorf("extract: %s: %w", path, err)
	}
	return result, nil
}
