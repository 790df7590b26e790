// Package shell runs external commands for the provisioning modules.
//
// Every side effect macsetup performs on the machine goes through a Runner:
// brew, stow, defaults, killall, git and user scripts. The Runner captures
// stdout, stderr and the exit code, applies an optional timeout and, in
// dry-run mode, reports the command it would have executed instead of
// running it.
package shell
