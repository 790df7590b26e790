// Package modules implements the provisioning modules and the static table
// that registers them with the pipeline in their fixed order.
//
// Modules that run before the bootstrap module (prerequisites, homebrew and
// dependencies itself) only see the run settings. Every later module reads
// the declarative configuration through the config.Provider, which the
// orchestrator fills once the bootstrap module has validated the file.
package modules
