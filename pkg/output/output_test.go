package output

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFormatString(t *testing.T) {
	assert.Equal(t, "auto", FormatAuto.String())
	assert.Equal(t, "term", FormatTerminal.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "unknown", Format(99).String())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"terminal", FormatTerminal, false},
		{"PLAIN", FormatText, false},
		{"json", FormatAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAutoFormatOnBufferIsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatAuto)
	p.Warn("careful %s", "now")
	assert.Equal(t, "⚠ careful now\n", buf.String())
}

func sampleSummary() Summary {
	report := &pipeline.Report{
		Entries: []pipeline.Entry{
			{Module: "homebrew", DisplayName: "Homebrew", Outcome: pipeline.Success, Duration: 1200 * time.Millisecond},
			{Module: "formulae", DisplayName: "Formulae", Outcome: pipeline.Failure, Err: stderrors.New("brew install failed")},
			{Module: "macos", DisplayName: "macOS defaults", Outcome: pipeline.Skipped, Reason: pipeline.SkipFlag},
		},
		Elapsed: 3 * time.Second,
	}
	clones := &clone.Result{
		Tasks: []clone.Task{
			{RepoName: "api", Org: "acme", CloneURL: "git@github.com:acme/api.git", Destination: "/dev/acme", Status: clone.Succeeded},
			{RepoName: "site", Org: "acme", CloneURL: "git@github.com:acme/site.git", Destination: "/dev/acme", Status: clone.Succeeded, AlreadyPresent: true},
			{
				RepoName: "gone", Org: "acme", CloneURL: "git@github.com:acme/gone.git", Destination: "/dev/acme",
				Status: clone.Failed, Reason: "repository-not-found",
				Diagnostic: &clone.Diagnostic{
					Command:     "git clone -- git@github.com:acme/gone.git /dev/acme/gone",
					ExitCode:    128,
					ExitClass:   clone.ExitFatal,
					Stderr:      "ERROR: Repository not found.\nfatal: Could not read from remote repository.\n",
					Category:    clone.CategoryRepoNotFound,
					Remediation: "Check the repository name",
				},
			},
		},
		Succeeded:      1,
		AlreadyPresent: 1,
		Failed:         1,
	}
	return Summary{Report: report, Clones: clones, Unresolved: []string{"toy"}, Warnings: []string{"--skip old does not match any module"}}
}

func TestSummaryPlainText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatText)
	p.Summary(sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "✓ homebrew")
	assert.Contains(t, out, "✗ formulae  brew install failed")
	assert.Contains(t, out, "- macos     skipped: skipped by flag")
	assert.Contains(t, out, "Modules: 2 attempted, 1 succeeded, 1 failed, 1 skipped in 3s")
	assert.Contains(t, out, "api cloned to /dev/acme/api")
	assert.Contains(t, out, "site already present at /dev/acme/site")
	assert.Contains(t, out, "gone failed: repository-not-found")
	assert.Contains(t, out, "exit code: 128 (fatal)")
	assert.Contains(t, out, "ERROR: Repository not found.")
	assert.Contains(t, out, "hint:      Check the repository name")
	assert.Contains(t, out, "toy skipped: no destination chosen")
	assert.Contains(t, out, "Clones: 1 cloned, 1 already present, 1 failed")
	assert.Contains(t, out, "⚠ --skip old does not match any module")
	assert.NotContains(t, out, "\x1b[", "plain output has no escape codes")
}

func TestSummaryDryRunLines(t *testing.T) {
	tasks := make([]clone.Task, 10)
	for i := range tasks {
		tasks[i] = clone.Task{RepoName: string(rune('a' + i)), CloneURL: "u", Destination: "/dev", Status: clone.Succeeded, WouldClone: true}
	}
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatText)
	p.Summary(Summary{
		Report: &pipeline.Report{DryRun: true},
		Clones: &clone.Result{Tasks: tasks, WouldClone: 10},
	})

	out := buf.String()
	assert.Equal(t, 10, strings.Count(out, "would clone "))
	assert.Contains(t, out, "dry run, no changes were made")
	assert.Contains(t, out, "Clones: 10 would be cloned")
}

func TestObserverLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatText)

	p.ModuleStarted(pipeline.Descriptor{Name: "taps", DisplayName: "Homebrew taps"})
	p.ModuleFinished(pipeline.Entry{DisplayName: "Homebrew taps", Outcome: pipeline.Failure, Err: stderrors.New("nope")})
	p.TaskFinished(clone.Task{RepoName: "api", Destination: "/dev", Status: clone.Succeeded})
	p.WouldDo("run %s", "brew tap x/y")

	assert.Equal(t, "==> Homebrew taps\n✗ Homebrew taps: nope\n  ✓ api /dev/api\n» would run brew tap x/y\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, WriteReport(fs, "/reports/run.yaml", sampleSummary()))

	data, err := afero.ReadFile(fs, "/reports/run.yaml")
	require.NoError(t, err)

	var fr FileReport
	require.NoError(t, yaml.Unmarshal(data, &fr))
	assert.Equal(t, ModuleTotals{Attempted: 2, Succeeded: 1, Failed: 1, Skipped: 1}, fr.Totals)
	require.Len(t, fr.Modules, 3)
	assert.Equal(t, "brew install failed", fr.Modules[1].Error)
	assert.Equal(t, "skipped by flag", fr.Modules[2].Reason)

	require.NotNil(t, fr.Clones)
	require.Len(t, fr.Clones.Repositories, 3)
	assert.Equal(t, "already present", fr.Clones.Repositories[1].Note)
	gone := fr.Clones.Repositories[2]
	require.NotNil(t, gone.Diagnostic)
	assert.Equal(t, 128, gone.Diagnostic.ExitCode)
	assert.Equal(t, "repository-not-found", gone.Diagnostic.Category)
	assert.Equal(t, []string{"toy"}, fr.Unresolved)
}
