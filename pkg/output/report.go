package output

import (
	"path/filepath"
	"time"

	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileReport is the YAML document written by --report-file
type FileReport struct {
	GeneratedAt time.Time      `yaml:"generated_at"`
	DryRun      bool           `yaml:"dry_run"`
	Aborted     bool           `yaml:"aborted,omitempty"`
	Interrupted bool           `yaml:"interrupted,omitempty"`
	Elapsed     string         `yaml:"elapsed"`
	Totals      ModuleTotals   `yaml:"totals"`
	Modules     []ModuleReport `yaml:"modules"`
	Clones      *CloneReport   `yaml:"clones,omitempty"`
	Unresolved  []string       `yaml:"unresolved,omitempty"`
	Warnings    []string       `yaml:"warnings,omitempty"`
}

// ModuleTotals counts module outcomes
type ModuleTotals struct {
	Attempted int `yaml:"attempted"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
	Skipped   int `yaml:"skipped"`
}

// ModuleReport is one module's outcome
type ModuleReport struct {
	Name     string `yaml:"name"`
	Outcome  string `yaml:"outcome"`
	Reason   string `yaml:"reason,omitempty"`
	Error    string `yaml:"error,omitempty"`
	Duration string `yaml:"duration,omitempty"`
}

// CloneReport is the clone phase outcome
type CloneReport struct {
	Succeeded      int          `yaml:"succeeded"`
	Failed         int          `yaml:"failed"`
	AlreadyPresent int          `yaml:"already_present"`
	WouldClone     int          `yaml:"would_clone,omitempty"`
	Cancelled      int          `yaml:"cancelled,omitempty"`
	Repositories   []TaskReport `yaml:"repositories"`
}

// TaskReport is one repository's outcome
type TaskReport struct {
	Name       string            `yaml:"name"`
	Org        string            `yaml:"org,omitempty"`
	URL        string            `yaml:"url"`
	Target     string            `yaml:"target"`
	Status     string            `yaml:"status"`
	Note       string            `yaml:"note,omitempty"`
	Diagnostic *DiagnosticReport `yaml:"diagnostic,omitempty"`
}

// DiagnosticReport describes a failed clone
type DiagnosticReport struct {
	Command     string `yaml:"command,omitempty"`
	ExitCode    int    `yaml:"exit_code"`
	ExitClass   string `yaml:"exit_class"`
	Category    string `yaml:"category"`
	Remediation string `yaml:"remediation,omitempty"`
	Stderr      string `yaml:"stderr,omitempty"`
}

// BuildFileReport converts a summary into its YAML form
func BuildFileReport(s Summary, now time.Time) FileReport {
	fr := FileReport{
		GeneratedAt: now.UTC().Truncate(time.Second),
		Unresolved:  s.Unresolved,
		Warnings:    s.Warnings,
	}

	if r := s.Report; r != nil {
		succeeded, failed, skipped := r.Counts()
		fr.DryRun = r.DryRun
		fr.Aborted = r.Aborted
		fr.Interrupted = r.Interrupted
		fr.Elapsed = formatDuration(r.Elapsed)
		fr.Totals = ModuleTotals{Attempted: r.Attempted(), Succeeded: succeeded, Failed: failed, Skipped: skipped}
		for _, e := range r.Entries {
			fr.Modules = append(fr.Modules, moduleReport(e))
		}
	}

	if c := s.Clones; c != nil {
		cr := &CloneReport{
			Succeeded:      c.Succeeded,
			Failed:         c.Failed,
			AlreadyPresent: c.AlreadyPresent,
			WouldClone:     c.WouldClone,
			Cancelled:      c.Cancelled,
		}
		for _, t := range c.Tasks {
			cr.Repositories = append(cr.Repositories, taskReport(t))
		}
		fr.Clones = cr
	}
	return fr
}

func moduleReport(e pipeline.Entry) ModuleReport {
	mr := ModuleReport{Name: e.Module, Outcome: string(e.Outcome), Reason: string(e.Reason)}
	if e.Err != nil {
		mr.Error = e.Err.Error()
	}
	if e.Outcome != pipeline.Skipped {
		mr.Duration = formatDuration(e.Duration)
	}
	return mr
}

func taskReport(t clone.Task) TaskReport {
	tr := TaskReport{
		Name:   t.RepoName,
		Org:    t.Org,
		URL:    t.CloneURL,
		Target: t.Target(),
		Status: string(t.Status),
		Note:   t.Reason,
	}
	switch {
	case t.AlreadyPresent:
		tr.Note = "already present"
	case t.WouldClone:
		tr.Note = "would clone"
	}
	if d := t.Diagnostic; d != nil {
		tr.Diagnostic = &DiagnosticReport{
			Command:     d.Command,
			ExitCode:    d.ExitCode,
			ExitClass:   string(d.ExitClass),
			Category:    string(d.Category),
			Remediation: d.Remediation,
			Stderr:      d.Stderr,
		}
	}
	return tr
}

// WriteReport writes the summary as YAML to path on fs
func WriteReport(fs afero.Fs, path string, s Summary) error {
	data, err := yaml.Marshal(BuildFileReport(s, time.Now()))
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode report")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to create directory for %s", path)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to write report %s", path)
	}
	return nil
}
