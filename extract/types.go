// Package extract implements the traversal driver, import/require
// recognizer, globals extractor, and member-access tracer of spec.md §4.3-4.6,
// producing the per-file capability accumulator that the policy package
// unions across a package's source files.
package extract

import (
	"sort"
	"strings"
)

// MemberAccess is a (module, member) pair, per spec.md §3.
type MemberAccess struct {
	Module string
	Member string
}

// String renders the canonical "<module>.<member>" textual form.
func (m MemberAccess) String() string {
	return m.Module + "." + m.Member
}

// Result accumulates one file's derived capability sets. Sets are built as
// maps during traversal (duplicate-free by construction) and only converted
// to sorted slices on read, matching the determinism requirement of
// spec.md §8.
type Result struct {
	modules       map[string]struct{}
	globals       map[string]struct{}
	moduleMembers map[MemberAccess]struct{}
	globalMembers map[string]struct{} // "<global>.<member>"

	// Warnings records non-fatal issues (e.g. export-all re-exports whose
	// members can't be enumerated) for the caller to log.
	Warnings []string
}

// NewResult creates an empty accumulator.
func NewResult() *Result {
	return &Result{
		modules:       map[string]struct{}{},
		globals:       map[string]struct{}{},
		moduleMembers: map[MemberAccess]struct{}{},
		globalMembers: map[string]struct{}{},
	}
}

func (r *Result) addModule(m string) {
	if m == "" {
		return
	}
	r.modules[m] = struct{}{}
}

func (r *Result) addGlobal(g string) {
	if g == "" {
		return
	}
	r.globals[g] = struct{}{}
}

func (r *Result) addModuleMember(module, member string) {
	if module == "" || member == "" {
		return
	}
	r.addModule(module)
	r.moduleMembers[MemberAccess{Module: module, Member: member}] = struct{}{}
}

func (r *Result) addGlobalMember(global, member string) {
	if global == "" || member == "" {
		return
	}
	r.addGlobal(global)
	r.globalMembers[global+"."+member] = struct{}{}
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddModule records a module specifier directly. Exported for callers (the
// cache package) that reconstruct a Result from a serialized record rather
// than from a traversal.
func (r *Result) AddModule(m string) { r.addModule(m) }

// AddGlobal records a global identifier directly.
func (r *Result) AddGlobal(g string) { r.addGlobal(g) }

// AddModuleMember records a module member access directly.
func (r *Result) AddModuleMember(module, member string) { r.addModuleMember(module, member) }

// AddGlobalMemberKey records a global member access from its already
// combined "<global>.<member>" form, splitting on the right-most dot per
// the canonical form in spec.md §3.
func (r *Result) AddGlobalMemberKey(key string) {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return
	}
	r.addGlobalMember(key[:idx], key[idx+1:])
}

// Modules returns the coarse module-specifier set, sorted.
func (r *Result) Modules() []string { return sortedKeys(r.modules) }

// Globals returns the coarse global-identifier set, sorted.
func (r *Result) Globals() []string { return sortedKeys(r.globals) }

// ModuleMembers returns the fine module-member set, sorted by canonical
// string form.
func (r *Result) ModuleMembers() []MemberAccess {
	out := make([]MemberAccess, 0, len(r.moduleMembers))
	for m := range r.moduleMembers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// GlobalMembers returns the fine global-member set, sorted.
func (r *Result) GlobalMembers() []string { return sortedKeys(r.globalMembers) }

// Merge unions another Result into r, preserving the invariant that every
// member's module/global is also present in the coarse set.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for m := range other.modules {
		r.modules[m] = struct{}{}
	}
	for g := range other.globals {
		r.globals[g] = struct{}{}
	}
	for m := range other.moduleMembers {
		r.moduleMembers[m] = struct{}{}
	}
	for g := range other.globalMembers {
		r.globalMembers[g] = struct{}{}
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
