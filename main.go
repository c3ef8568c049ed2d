package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/capsentry/capsentry/ast"
	"github.com/capsentry/capsentry/cache"
	"github.com/capsentry/capsentry/fsio"
	"github.com/capsentry/capsentry/policy"
)

func main() {
	var (
		overwrite         = flag.Bool("overwrite", false, "Overwrite the stored policy on disk")
		locations         = flag.Bool("locations", false, "Include source locations in the AST (debug aid)")
		fine              = flag.Bool("fine", false, "Enable fine-grained member access tracing")
		noBackup          = flag.Bool("no-backup", false, "Suppress backup of the previous policy")
		includeNonBuiltin = flag.Bool("include-non-builtin", false, "Include non-builtin modules in the output")
		toStdout          = flag.Bool("json", false, "Emit the merged policy as JSON to stdout instead of writing it")
		policyFile        = flag.String("policy-file", policy.DefaultPath, "Override the policy file path")
		watch             = flag.Bool("watch", false, "Watch the repository and re-run on source or lockfile changes")
		cacheFile         = flag.String("cache", "", "Path to an incremental-analysis cache database (disabled if empty)")
		concurrency       = flag.Int("concurrency", 0, "Number of concurrent package analyses (0 = GOMAXPROCS)")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: capsentry [flags] <repo-root>")
		os.Exit(1)
	}
	repoPath := flag.Arg(0)

	ctx := context.Background()
	reader := fsio.New()
	adapter := ast.New(reader, *locations)

	var store *cache.Store
	if *cacheFile != "" {
		s, err := cache.Open(*cacheFile)
		if err != nil {
			log.Fatalf("capsentry: %v", err)
		}
		defer s.Close()
		store = s
	}

	runner := &policy.Runner{
		Reader:      reader,
		Adapter:     adapter,
		Cache:       store,
		Concurrency: *concurrency,
	}

	run := func() {
		p, err := runner.Run(ctx, repoPath, *fine, *includeNonBuiltin)
		if err != nil {
			log.Fatalf("capsentry: %v", err)
		}
		emit(ctx, reader, p, *policyFile, *overwrite, *noBackup, *toStdout)
	}

	run()

	if *watch {
		log.Printf("capsentry: watching %s for changes", repoPath)
		if err := policy.Watch(ctx, repoPath, run); err != nil {
			log.Fatalf("capsentry: watch: %v", err)
		}
	}
}

func emit(ctx context.Context, reader fsio.Reader, p *policy.Policy, path string, overwrite, noBackup, toStdout bool) {
	if toStdout {
		data, err := p.Marshal()
		if err != nil {
			log.Fatalf("capsentry: %v", err)
		}
		os.Stdout.Write(data)
		return
	}

	if reader.Exists(ctx, path) && !overwrite {
		log.Fatalf("capsentry: %s already exists; pass -overwrite to replace it", path)
	}
	if err := policy.WriteFile(ctx, reader, path, p, noBackup); err != nil {
		log.Fatalf("capsentry: %v", err)
	}
}
