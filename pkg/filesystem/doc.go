// Package filesystem selects the afero filesystem a run operates on and
// provides small helpers shared by modules that inspect it.
//
// Dry runs receive a read-only view of the OS filesystem, so a code path that
// forgets to honour dry-run fails loudly instead of mutating the machine.
package filesystem
