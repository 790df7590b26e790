// Package pipeline runs provisioning modules in a fixed order.
//
// Modules are described by a Descriptor and executed one at a time. A failing
// module is recorded and the run continues, except for the single module
// marked as Bootstrap: it installs what configuration loading needs, so its
// failure aborts the run before any later module is invoked.
//
// Once the bootstrap module has succeeded (or was not selected for this run)
// the pipeline calls its Initializer exactly once. Modules that come before
// the bootstrap module are never handed the configuration store, so they
// cannot query it.
//
// Selection follows the CLI: with RunOptions.OnlyModule set every other module
// is Skipped; otherwise modules named in SkipModules are Skipped.
package pipeline
