package pipeline

import (
	"context"
	"time"
)

// Descriptor is a registered module. Descriptors are built once and never
// mutated; run state lives in the Report.
type Descriptor struct {
	Name        string
	DisplayName string
	Run         func(ctx context.Context) error
	DependsOn   []string
	// Bootstrap marks the module whose failure aborts the run
	Bootstrap bool
}

// Label returns the display name, falling back to the name
func (d Descriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Outcome of a module in a run
type Outcome string

const (
	Success Outcome = "success"
	Failure Outcome = "failure"
	Skipped Outcome = "skipped"
)

// SkipReason explains a Skipped outcome
type SkipReason string

const (
	NotSelected SkipReason = "not selected"
	SkipFlag    SkipReason = "skipped by flag"
	Aborted     SkipReason = "bootstrap failed"
	Interrupted SkipReason = "interrupted"
)

// RunOptions controls one run of the pipeline
type RunOptions struct {
	DryRun      bool
	Verbose     bool
	OnlyModule  string
	SkipModules map[string]struct{}
}

// Entry is the outcome of one module
type Entry struct {
	Module      string
	DisplayName string
	Outcome     Outcome
	Reason      SkipReason
	Err         error
	Duration    time.Duration
}

// Report holds exactly one entry per registered module, in pipeline order
type Report struct {
	Entries     []Entry
	Elapsed     time.Duration
	DryRun      bool
	Aborted     bool
	Interrupted bool
	// InitErr is set when configuration could not be initialized
	InitErr error
}

// Counts returns the number of entries per outcome
func (r *Report) Counts() (succeeded, failed, skipped int) {
	for _, e := range r.Entries {
		switch e.Outcome {
		case Success:
			succeeded++
		case Failure:
			failed++
		case Skipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Attempted is the number of modules whose run was invoked
func (r *Report) Attempted() int {
	succeeded, failed, _ := r.Counts()
	return succeeded + failed
}

// Failed reports whether any module failed
func (r *Report) Failed() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}

// Entry returns the entry for module name
func (r *Report) Entry(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Module == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Observer is notified as modules start and finish
type Observer interface {
	ModuleStarted(d Descriptor)
	ModuleFinished(e Entry)
}
