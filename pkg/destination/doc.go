// Package destination decides where a repository is cloned.
//
// Resolution is a strict precedence: a per-repository override, then a
// mapping for the owning organization or group, then an interactive choice.
// Rule paths are relative to the development root. Organization names are
// opaque strings here; quoting them for configuration lookups is the
// config package's concern.
//
// An unresolved repository (no rule and the user declined to choose) is a
// normal outcome reported through Resolution.Resolved, not an error.
package destination
