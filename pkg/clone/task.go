package clone

import (
	"path/filepath"
)

// Status of a clone task
type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed
}

// MarkerDir is the directory whose presence marks an initialized repository
const MarkerDir = ".git"

// Task is one repository to clone. Destination is the resolved parent
// directory; the repository lands in Destination/RepoName.
type Task struct {
	RepoName    string
	Org         string
	CloneURL    string
	Branch      string
	Destination string

	Status Status
	// AlreadyPresent is set when the target held a repository before the run
	AlreadyPresent bool
	// WouldClone is set for tasks described but not cloned in dry-run mode
	WouldClone bool
	// Reason explains a failure in one line
	Reason     string
	Diagnostic *Diagnostic
}

// Target is the directory the repository is cloned into
func (t Task) Target() string {
	return filepath.Join(t.Destination, t.RepoName)
}

// Marker is the path checked for idempotence and verification
func (t Task) Marker() string {
	return filepath.Join(t.Target(), MarkerDir)
}

// Result aggregates a scheduler run. Tasks keeps the input order.
type Result struct {
	Tasks          []Task
	Succeeded      int
	Failed         int
	AlreadyPresent int
	WouldClone     int
	Cancelled      int
}

// FailedTasks returns the failed tasks in input order
func (r Result) FailedTasks() []Task {
	var out []Task
	for _, t := range r.Tasks {
		if t.Status == Failed {
			out = append(out, t)
		}
	}
	return out
}
