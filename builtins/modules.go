// Package builtins supplies the opaque set of platform built-in module
// specifiers against which the policy's module output is filtered, and the
// set of ambient global names the extractor recognizes. Spec §6 treats this list as supplied by the host
// platform's own introspection API; this package is the stand-in for that
// API, hand-curated against the current LTS module list.
package builtins

import "strings"

var names = map[string]struct{}{
	"assert": {}, "assert/strict": {}, "async_hooks": {}, "buffer": {},
	"child_process": {}, "cluster": {}, "console": {}, "constants": {},
	"crypto": {}, "dgram": {}, "diagnostics_channel": {}, "dns": {},
	"dns/promises": {}, "domain": {}, "events": {}, "fs": {}, "fs/promises": {},
	"http": {}, "http2": {}, "https": {}, "inspector": {}, "module": {},
	"net": {}, "os": {}, "path": {}, "path/posix": {}, "path/win32": {},
	"perf_hooks": {}, "process": {}, "punycode": {}, "querystring": {},
	"readline": {}, "readline/promises": {}, "repl": {}, "stream": {},
	"stream/consumers": {}, "stream/promises": {}, "stream/web": {},
	"string_decoder": {}, "sys": {}, "timers": {}, "timers/promises": {},
	"tls": {}, "trace_events": {}, "tty": {}, "url": {}, "util": {},
	"util/types": {}, "v8": {}, "vm": {}, "wasi": {}, "worker_threads": {},
	"zlib": {},
}

// Names returns the set of platform built-in module specifiers.
func Names() map[string]struct{} {
	return names
}

// Is reports whether specifier names a platform built-in module. The
// "node:" prefix is stripped before lookup, since both forms refer to the
// same module.
func Is(specifier string) bool {
	specifier = strings.TrimPrefix(specifier, "node:")
	_, ok := names[specifier]
	return ok
}

var globalNames = map[string]struct{}{
	"console": {}, "process": {}, "global": {}, "globalThis": {},
	"require": {}, "module": {}, "exports": {}, "__dirname": {}, "__filename": {},
	"Buffer": {}, "setTimeout": {}, "clearTimeout": {}, "setInterval": {},
	"clearInterval": {}, "setImmediate": {}, "clearImmediate": {}, "queueMicrotask": {},
	"URL": {}, "URLSearchParams": {}, "TextEncoder": {}, "TextDecoder": {},
	"performance": {}, "structuredClone": {}, "fetch": {}, "atob": {}, "btoa": {},
	"WebAssembly": {}, "Promise": {}, "Symbol": {}, "Proxy": {}, "Reflect": {},
	"Array": {}, "Object": {}, "Map": {}, "Set": {}, "WeakMap": {}, "WeakSet": {},
	"Error": {}, "TypeError": {}, "RangeError": {}, "SyntaxError": {},
	"JSON": {}, "Math": {}, "Date": {}, "RegExp": {}, "Intl": {},
	"Number": {}, "String": {}, "Boolean": {}, "BigInt": {},
}

// IsGlobalName reports whether name is a known ambient global identifier.
// This is necessary-but-not-sufficient for treating a reference as a global:
// the caller must also confirm no local binding shadows it and that the
// identifier sits in a referring position, not a declaring one (see the
// extract package's isGlobalObjectReference and isReferringUse).
func IsGlobalName(name string) bool {
	_, ok := globalNames[name]
	return ok
}
