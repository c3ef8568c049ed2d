package pkgmap

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/capsentry/capsentry/fsio"
)

// lockfile is the subset of a v1/v2/v3 npm lockfile the mapper reads. All
// three schema versions can appear in the same file shape-wise (npm keeps
// writing the legacy "dependencies" tree alongside the flat "packages" map
// for backward compatibility), so both fields are parsed unconditionally and
// lockfileVersion selects which one drives resolution.
type lockfile struct {
	LockfileVersion int                       `json:"lockfileVersion"`
	Dependencies    map[string]lockDepNodeV1  `json:"dependencies"`
	Packages        map[string]lockPackageV23 `json:"packages"`
}

type lockDepNodeV1 struct {
	Version      string                   `json:"version"`
	Optional     bool                     `json:"optional"`
	Requires     map[string]string        `json:"requires"`
	Dependencies map[string]lockDepNodeV1 `json:"dependencies"`
}

type lockPackageV23 struct {
	Version              string            `json:"version"`
	Optional             bool              `json:"optional"`
	Dependencies         map[string]string `json:"dependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

const (
	npmShrinkwrapFile = "npm-shrinkwrap.json"
	packageLockFile   = "package-lock.json"
)

// lockfilePath implements spec.md §4.7's resolution order: prefer a
// shrinkwrap file in the package root if present, otherwise the standard
// lock file.
func lockfilePath(ctx context.Context, reader fsio.Reader, rootPath string) string {
	shrinkwrap := join(rootPath, npmShrinkwrapFile)
	if reader.Exists(ctx, shrinkwrap) {
		return shrinkwrap
	}
	return join(rootPath, packageLockFile)
}

func readLockfile(ctx context.Context, reader fsio.Reader, path string) (*lockfile, error) {
	data, err := reader.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pkgmap: read lockfile %s: %w", path, err)
	}
	var lf lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("pkgmap: parse lockfile %s: %w", path, err)
	}
	return &lf, nil
}

// Build resolves the analysis-unit set for the package rooted at rootPath,
// per spec.md §4.7. The root manifest and root lockfile are required files:
// their absence propagates as an error, per spec.md §7. An unrecognized
// lockfile schema version is not an error — it yields an empty dependency
// map and a root-only analysis, the conservative default spec.md §9 leaves
// open.
func Build(ctx context.Context, reader fsio.Reader, rootPath string) (*Graph, error) {
	m, err := readManifest(ctx, reader, join(rootPath, "package.json"))
	if err != nil {
		return nil, err
	}
	root := Unit{Name: m.Name, Path: rootPath, Version: m.Version}

	lf, err := readLockfile(ctx, reader, lockfilePath(ctx, reader, rootPath))
	if err != nil {
		return nil, err
	}

	g := &Graph{Root: root, edges: map[string][]string{}}

	switch lf.LockfileVersion {
	case 1:
		requiresByPath := map[string]map[string]string{}
		collectV1(ctx, reader, rootPath, lf.Dependencies, g, requiresByPath)
		for path, requires := range requiresByPath {
			g.edges[path] = resolveRequires(path, requires, g)
		}
	case 2, 3:
		buildV23(ctx, reader, rootPath, lf.Packages, g)
	default:
		// Unrecognized schema: root-only analysis, no error.
	}

	g.edges[rootPath] = resolveRequires(rootPath, toStringMap(m.topLevelDependencyNames()), g)
	return g, nil
}

func toStringMap(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = "" // no range recorded for the root manifest's own deps
	}
	return out
}

// collectV1 walks the legacy recursive dependency tree depth-first,
// registering every installed unit and recording each one's raw requires
// map for later resolution. Edge resolution is deferred to a second pass
// (see Build) because a package's requires can name a dependency that is
// only discovered later in this same walk (e.g. a hoisted sibling subtree),
// and resolution needs the complete path-map to pick the right candidate.
func collectV1(ctx context.Context, reader fsio.Reader, parentPath string, deps map[string]lockDepNodeV1, g *Graph, requiresByPath map[string]map[string]string) {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := deps[name]
		path := join(parentPath, "node_modules", name)
		if dep.Optional && !reader.Exists(ctx, path) {
			continue
		}
		g.Units = append(g.Units, Unit{Name: name, Path: path, Version: dep.Version})
		if len(dep.Requires) > 0 {
			requiresByPath[path] = dep.Requires
		}
		if len(dep.Dependencies) > 0 {
			collectV1(ctx, reader, path, dep.Dependencies, g, requiresByPath)
		}
	}
}

func buildV23(ctx context.Context, reader fsio.Reader, rootPath string, packages map[string]lockPackageV23, g *Graph) {
	relPaths := make([]string, 0, len(packages))
	for rel := range packages {
		relPaths = append(relPaths, rel)
	}
	sort.Strings(relPaths)

	for _, rel := range relPaths {
		if rel == "" {
			continue // the root package itself
		}
		entry := packages[rel]
		name := canonicalNameFromPath(rel)
		if name == "" {
			continue
		}
		path := join(rootPath, rel)
		if !reader.Exists(ctx, path) {
			continue
		}
		g.Units = append(g.Units, Unit{Name: name, Path: path, Version: entry.Version})

		var targets []string
		for depName := range entry.Dependencies {
			targets = append(targets, resolveFlatDependency(rootPath, depName, packages))
		}
		for depName := range entry.OptionalDependencies {
			targets = append(targets, resolveFlatDependency(rootPath, depName, packages))
		}
		g.edges[path] = filterEmpty(targets)
	}
}

// canonicalNameFromPath derives a package's canonical name from its relative
// install path, per spec.md §4.7: the substring after the last
// node_modules/ segment, with scoped packages' @scope/ prefix transparently
// included since it is part of the canonical name, not a path segment to
// strip.
func canonicalNameFromPath(rel string) string {
	idx := strings.LastIndex(rel, "node_modules/")
	if idx == -1 {
		return ""
	}
	return rel[idx+len("node_modules/"):]
}

// resolveFlatDependency finds the install path (rootPath joined with its
// lockfile key) of the package dependency named depName is satisfied by, for schema 2/3 flat
// package maps. Dependency names not present in the path map are silently
// skipped (returns "").
func resolveFlatDependency(rootPath, depName string, packages map[string]lockPackageV23) string {
	nested := "node_modules/" + depName
	if _, ok := packages[nested]; ok {
		return join(rootPath, nested)
	}
	suffix := "node_modules/" + depName
	for rel := range packages {
		if rel == nested {
			continue
		}
		if strings.HasSuffix(rel, "/"+suffix) {
			return join(rootPath, rel)
		}
	}
	return ""
}

func filterEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// resolveRequires picks one installed copy for each required name. A copy
// nested directly under fromPath's own node_modules wins whatever its
// version. Otherwise the first candidate (in Units order, then the root)
// whose recorded version satisfies the requested semver range is picked,
// and failing that the first candidate regardless of version. Intermediate
// ancestor node_modules directories are not ranked by nearness. Names with
// no installed copy are skipped.
func resolveRequires(fromPath string, requires map[string]string, g *Graph) []string {
	var out []string
	for name, versionRange := range requires {
		if path, ok := resolveOne(fromPath, name, versionRange, g); ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func resolveOne(fromPath, name, versionRange string, g *Graph) (string, bool) {
	nested := join(fromPath, "node_modules", name)
	var candidates []Unit
	for _, u := range g.Units {
		if u.Name == name {
			candidates = append(candidates, u)
		}
	}
	if g.Root.Name == name {
		candidates = append(candidates, g.Root)
	}
	for _, c := range candidates {
		if c.Path == nested {
			return c.Path, true
		}
	}
	if versionRange != "" {
		if constraint, err := semver.NewConstraint(versionRange); err == nil {
			for _, c := range candidates {
				v, err := semver.NewVersion(c.Version)
				if err != nil {
					continue
				}
				if constraint.Check(v) {
					return c.Path, true
				}
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0].Path, true
	}
	return "", false
}

func join(parts ...string) string {
	return strings.Join(trimSlashes(parts), "/")
}

func trimSlashes(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSuffix(p, "/"))
	}
	return out
}
