package output

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/arthur-debert/macsetup/pkg/shell"
)

// Summary is everything reported at the end of a run
type Summary struct {
	Report *pipeline.Report
	// Clones is nil when the repositories module did not run
	Clones *clone.Result
	// Unresolved lists repositories skipped for lack of a destination
	Unresolved []string
	Warnings   []string
}

// stderrLines is how much of a failed clone's stderr is shown
const stderrLines = 5

// Summary prints the final summary
func (p *Printer) Summary(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprint(p.out, p.renderSummary(s))
}

func (p *Printer) renderSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("\n")

	if s.Report != nil {
		p.renderModules(&b, s.Report)
	}
	if s.Clones != nil || len(s.Unresolved) > 0 {
		b.WriteString("\n")
		p.renderClones(&b, s.Clones, s.Unresolved)
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "%s %s\n", p.paint(WarningStyle, WarningSymbol), w)
		}
	}
	return b.String()
}

func (p *Printer) renderModules(b *strings.Builder, r *pipeline.Report) {
	title := "Summary"
	if r.DryRun {
		title = "Summary (dry run, no changes were made)"
	}
	b.WriteString(p.paint(TitleStyle, title) + "\n")

	width := 0
	for _, e := range r.Entries {
		if len(e.Module) > width {
			width = len(e.Module)
		}
	}

	for _, e := range r.Entries {
		name := fmt.Sprintf("%-*s", width, e.Module)
		switch e.Outcome {
		case pipeline.Success:
			fmt.Fprintf(b, "  %s %s  %s\n", p.paint(SuccessStyle, SuccessSymbol), name, p.paint(MutedStyle, formatDuration(e.Duration)))
		case pipeline.Failure:
			fmt.Fprintf(b, "  %s %s  %v\n", p.paint(ErrorStyle, ErrorSymbol), name, e.Err)
		case pipeline.Skipped:
			fmt.Fprintf(b, "  %s %s  %s\n", p.paint(MutedStyle, SkipSymbol), name, p.paint(MutedStyle, "skipped: "+string(e.Reason)))
		}
	}

	succeeded, failed, skipped := r.Counts()
	line := fmt.Sprintf("Modules: %d attempted, %d succeeded, %d failed, %d skipped in %s",
		r.Attempted(), succeeded, failed, skipped, formatDuration(r.Elapsed))
	switch {
	case r.Aborted:
		line += " (aborted)"
	case r.Interrupted:
		line += " (interrupted)"
	}
	style := SuccessStyle
	if failed > 0 || r.Aborted {
		style = ErrorStyle
	}
	b.WriteString(p.paint(style, line) + "\n")
	if r.InitErr != nil {
		fmt.Fprintf(b, "  %s configuration: %v\n", p.paint(ErrorStyle, ErrorSymbol), r.InitErr)
	}
}

func (p *Printer) renderClones(b *strings.Builder, res *clone.Result, unresolved []string) {
	b.WriteString(p.paint(TitleStyle, "Repositories") + "\n")

	if res != nil {
		for _, t := range res.Tasks {
			switch {
			case t.Status == clone.Failed:
				p.renderFailedTask(b, t)
			case t.AlreadyPresent:
				fmt.Fprintf(b, "  %s %s already present at %s\n", p.paint(MutedStyle, SkipSymbol), t.RepoName, p.paint(PathStyle, t.Target()))
			case t.WouldClone:
				fmt.Fprintf(b, "  %s would clone %s into %s\n", p.paint(MutedStyle, WouldSymbol), t.CloneURL, p.paint(PathStyle, t.Target()))
			default:
				fmt.Fprintf(b, "  %s %s cloned to %s\n", p.paint(SuccessStyle, SuccessSymbol), t.RepoName, p.paint(PathStyle, t.Target()))
			}
		}
	}
	for _, name := range unresolved {
		fmt.Fprintf(b, "  %s %s skipped: no destination chosen\n", p.paint(WarningStyle, WarningSymbol), name)
	}

	if res == nil {
		return
	}
	line := fmt.Sprintf("Clones: %d cloned, %d already present, %d failed", res.Succeeded, res.AlreadyPresent, res.Failed)
	if res.WouldClone > 0 {
		line = fmt.Sprintf("Clones: %d would be cloned, %d already present, %d failed", res.WouldClone, res.AlreadyPresent, res.Failed)
	}
	if res.Cancelled > 0 {
		line += fmt.Sprintf(" (%d cancelled)", res.Cancelled)
	}
	style := SuccessStyle
	if res.Failed > 0 {
		style = ErrorStyle
	}
	b.WriteString(p.paint(style, line) + "\n")
}

func (p *Printer) renderFailedTask(b *strings.Builder, t clone.Task) {
	fmt.Fprintf(b, "  %s %s failed: %s\n", p.paint(ErrorStyle, ErrorSymbol), t.RepoName, t.Reason)
	d := t.Diagnostic
	if d == nil {
		return
	}
	if d.Command != "" {
		fmt.Fprintf(b, "      command:   %s\n", d.Command)
	}
	fmt.Fprintf(b, "      exit code: %d (%s)\n", d.ExitCode, d.ExitClass)
	if tail := shell.Tail(d.Stderr, stderrLines); tail != "" {
		for _, line := range strings.Split(tail, "\n") {
			fmt.Fprintf(b, "      %s\n", p.paint(MutedStyle, line))
		}
	}
	if d.Remediation != "" {
		fmt.Fprintf(b, "      hint:      %s\n", p.paint(InfoStyle, d.Remediation))
	}
}
