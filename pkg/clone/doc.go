// Package clone clones repositories into already-resolved destinations with
// bounded parallelism.
//
// The Scheduler draws one token per clone from a weighted semaphore sized to
// the configured parallelism, so no more than MaxParallel clones are ever in
// flight. Every dispatched worker is joined before Run returns and each
// worker's outcome is collected exactly once through a results channel.
//
// A task whose target already holds a repository is skipped without any
// network operation. After a clone reports success the scheduler checks the
// repository marker at the target and reclassifies the task as failed when
// it is missing.
//
// Failures carry a Diagnostic built from an ordered rule table that looks at
// the exit code and the captured stderr. Unrecognized failures keep the raw
// exit code and stderr.
package clone
