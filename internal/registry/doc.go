// Package registry holds class and interface declarations.
//
// Builtin declarations (the capability interfaces, Exception and its
// standard subclasses, the array collections and stdClass) are embedded as
// CUE and compiled with the CUE Go API. User declarations are loaded from a
// directory of CUE files, unified with the same schema, and merged over the
// builtins. Lookups are case-insensitive, matching class-name semantics of
// the runtime.
//
// A Registry is immutable after construction and safe for concurrent use.
package registry
