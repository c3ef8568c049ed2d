package policy

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"

	"github.com/capsentry/capsentry/ast"
	"github.com/capsentry/capsentry/cache"
	"github.com/capsentry/capsentry/extract"
	"github.com/capsentry/capsentry/fsio"
	"github.com/capsentry/capsentry/pkgmap"
	"github.com/capsentry/capsentry/scope"
)

// Runner drives one end-to-end analysis of a repository root: resolve the
// dependency graph, enumerate each unit's source files, extract each file's
// capability set, and accumulate per-package-name results into a Policy.
// Per spec.md §5, per-package analysis is embarrassingly parallel and runs
// across a bounded worker pool; within one package, traversal stays
// single-threaded.
type Runner struct {
	Reader      fsio.Reader
	Adapter     *ast.Adapter
	Cache       *cache.Store // nil disables the incremental cache
	Concurrency int          // 0 means runtime.GOMAXPROCS(0)
}

type unitResult struct {
	name   string
	result *extract.Result
}

// Run analyzes rootPath and returns the built Policy.
func (r *Runner) Run(ctx context.Context, rootPath string, memberAccessTracing, includeNonBuiltin bool) (*Policy, error) {
	graph, err := pkgmap.Build(ctx, r.Reader, rootPath)
	if err != nil {
		return nil, err
	}

	units := make([]pkgmap.Unit, 0, len(graph.Units)+1)
	units = append(units, graph.Root)
	units = append(units, graph.Units...)

	workers := r.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan pkgmap.Unit)
	out := make(chan unitResult, len(units))
	abort := make(chan error, len(units))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				result, err := r.analyzeUnit(ctx, unit)
				if err != nil {
					if isHardAbort(err) {
						abort <- err
						continue
					}
					log.Printf("policy: skipping %s: %v", unit.Path, err)
					continue
				}
				out <- unitResult{name: unit.Name, result: result}
			}
		}()
	}

	go func() {
		for _, unit := range units {
			jobs <- unit
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(out)
		close(abort)
	}()

	p := New(memberAccessTracing, includeNonBuiltin)
	for ur := range out {
		p.Add(ur.name, ur.result)
	}
	if err := <-abort; err != nil {
		return nil, err
	}
	p.Build()
	return p, nil
}

// isHardAbort reports whether err is the unknown-binding-pattern-shape error
// spec.md §7 designates a hard, aborting failure (as opposed to a per-file
// parse failure, which is logged and skipped): silently continuing past an
// unmodeled AST shape would understate the package's real capabilities.
func isHardAbort(err error) bool {
	return errors.As(err, new(*scope.ErrUnknownPatternShape))
}

// analyzeUnit enumerates and extracts one package copy's source files. A
// single file's parse failure is non-fatal per spec.md §7: it is logged and
// skipped, and analysis continues over the rest of the unit. An unknown
// binding-pattern shape is not: it propagates up to the caller, which aborts
// the whole run rather than silently skip the file.
func (r *Runner) analyzeUnit(ctx context.Context, unit pkgmap.Unit) (*extract.Result, error) {
	files, err := pkgmap.SourceFiles(ctx, r.Reader, unit.Path)
	if err != nil {
		return nil, err
	}

	acc := extract.NewResult()
	for _, path := range files {
		result, err := r.analyzeFile(ctx, path)
		if err != nil {
			if isHardAbort(err) {
				return nil, err
			}
			log.Printf("policy: skipping %s: %v", path, err)
			continue
		}
		for _, w := range result.Warnings {
			log.Printf("policy: %s: %s", path, w)
		}
		acc.Merge(result)
	}
	return acc, nil
}

func (r *Runner) analyzeFile(ctx context.Context, path string) (*extract.Result, error) {
	if r.Cache == nil {
		return extract.File(ctx, r.Adapter, path)
	}

	content, err := r.Reader.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	digest, err := cache.Digest(content)
	if err != nil {
		return extract.File(ctx, r.Adapter, path)
	}
	if cached, ok := r.Cache.Get(path, digest); ok {
		return cached, nil
	}

	result, err := extract.File(ctx, r.Adapter, path)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.Put(path, digest, result); err != nil {
		log.Printf("policy: cache write %s: %v", path, err)
	}
	return result, nil
}
