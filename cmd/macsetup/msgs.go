package main

// Command descriptions
const (
	MsgRootShort = "Provision a macOS machine from a declarative configuration"
	MsgRootLong  = `macsetup provisions a macOS machine in a fixed sequence of modules:
command line tools, Homebrew, bootstrap dependencies, taps, formulae, casks,
dotfiles, repositories, macOS defaults, Oh My Zsh and automations.

A failing module is reported and the run continues, except for the bootstrap
module (dependencies): nothing after it can run without a valid configuration.`
	MsgRootExample = `  # Preview everything without changing the machine
  macsetup --dry-run

  # Run a single module
  macsetup --module repositories

  # Run everything except two modules
  macsetup --skip ohmyzsh --skip macos`
	MsgModulesShort    = "List the modules in execution order"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
)

// Flag descriptions
const (
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun       = "Show what would be done without changing anything"
	MsgFlagModule       = "Run only this module"
	MsgFlagSkip         = "Skip a module (repeatable)"
	MsgFlagAdopt        = "Let stow adopt existing files into the dotfiles repository"
	MsgFlagNoBackup     = "Do not back up files that block dotfile links"
	MsgFlagConfig       = "Configuration file (default $XDG_CONFIG_HOME/macsetup/config.toml)"
	MsgFlagParallel     = "Maximum concurrent clones (default from settings.clone_parallel)"
	MsgFlagCloneTimeout = "Time limit for each clone (default from settings.clone_timeout)"
	MsgFlagReportFile   = "Also write the run summary as YAML to this file"
	MsgFlagFormat       = "Console style: auto, term or text"
)

// Status messages
const (
	MsgDryRunBanner     = "Dry run: nothing will be changed"
	MsgReportWritten    = "Report written to %s"
	MsgModuleLine       = "%2d. %-*s %s"
	MsgModuleDependsOn  = "(after %s)"
	MsgModuleBootstrap  = "[bootstrap]"
	MsgVersionFormat    = "macsetup version %s\n"
	MsgVersionCommit    = "  commit: %s\n"
	MsgVersionBuilt     = "  built:  %s\n"
	MsgErrReportFailed  = "could not write report: %v"
	MsgErrInterrupted   = "interrupted"
	MsgErrBootstrap     = "bootstrap failed; remaining modules were not run"
	MsgErrModulesFailed = "%d module(s) failed"
)
