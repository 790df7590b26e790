// Package registry provides a generic, type-safe registry that remembers
// registration order. Pipelines and automation tables are built from
// explicit Register calls rather than name-based discovery.
package registry
