// Package policy assembles the per-package-name capability sets the rest of
// the module derives into the persisted artifact described in spec.md §3
// and §6, and drives the bounded-concurrency run across a repository's
// analysis units.
package policy

import (
	"sort"

	"github.com/capsentry/capsentry/builtins"
	"github.com/capsentry/capsentry/extract"
)

// Coarse is the coarse capability record for one package name.
type Coarse struct {
	Modules []string `json:"modules"`
	Globals []string `json:"globals"`
}

// Fine is the fine capability record for one package name. Field names
// mirror the wire shape of spec.md §6: "modules" holds module-member
// strings, "globals" holds global-member strings.
type Fine struct {
	Modules []string `json:"modules"`
	Globals []string `json:"globals"`
}

// Policy is the top-level persisted record.
type Policy struct {
	MemberAccessTracing bool              `json:"memberAccessTracing"`
	PolicyCoarse        map[string]Coarse `json:"policyCoarse"`
	PolicyFine          map[string]Fine   `json:"policyFine"`

	includeNonBuiltin bool
	byName            map[string]*extract.Result
}

// New creates an empty Policy. memberAccessTracing controls whether Fine
// sets are populated at all; includeNonBuiltin controls whether the coarse
// "modules" set is filtered down to the platform builtin list on Build.
func New(memberAccessTracing, includeNonBuiltin bool) *Policy {
	return &Policy{
		MemberAccessTracing: memberAccessTracing,
		includeNonBuiltin:   includeNonBuiltin,
		byName:              map[string]*extract.Result{},
	}
}

// Add unions a package copy's extracted Result into the accumulator for
// packageName. Multiple installed copies of the same name are unioned, per
// spec.md §3/§8.
func (p *Policy) Add(packageName string, result *extract.Result) {
	if result == nil {
		return
	}
	existing, ok := p.byName[packageName]
	if !ok {
		existing = extract.NewResult()
		p.byName[packageName] = existing
	}
	existing.Merge(result)
}

// Build finalizes PolicyCoarse and PolicyFine from the accumulated results.
// Output sets are sorted and duplicate-free by construction (spec.md §8).
func (p *Policy) Build() {
	p.PolicyCoarse = map[string]Coarse{}
	if p.MemberAccessTracing {
		p.PolicyFine = map[string]Fine{}
	}

	for name, result := range p.byName {
		modules := result.Modules()
		if !p.includeNonBuiltin {
			modules = filterBuiltin(modules)
		}
		p.PolicyCoarse[name] = Coarse{
			Modules: modules,
			Globals: result.Globals(),
		}
		if !p.MemberAccessTracing {
			continue
		}
		p.PolicyFine[name] = Fine{
			Modules: moduleMemberStrings(result.ModuleMembers(), p.includeNonBuiltin),
			Globals: result.GlobalMembers(),
		}
	}
}

func filterBuiltin(modules []string) []string {
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		if builtins.Is(m) {
			out = append(out, m)
		}
	}
	return out
}

func moduleMemberStrings(members []extract.MemberAccess, includeNonBuiltin bool) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if !includeNonBuiltin && !builtins.Is(m.Module) {
			continue
		}
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}
