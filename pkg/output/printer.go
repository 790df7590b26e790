package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/arthur-debert/macsetup/pkg/clone"
	"github.com/arthur-debert/macsetup/pkg/pipeline"
	"github.com/charmbracelet/lipgloss"
)

// Printer writes user-facing output. It is safe for concurrent use and is
// itself an io.Writer, so the shell runner's "would execute" lines and the
// clone workers' progress never interleave mid-line.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewPrinter returns a printer for out. FormatAuto detects color support
// when out is a file and falls back to plain text otherwise.
func NewPrinter(out io.Writer, format Format) *Printer {
	if format == FormatAuto {
		format = FormatText
		if f, ok := out.(*os.File); ok {
			format = DetectFormat(f)
		}
	}
	return &Printer{out: out, color: format == FormatTerminal}
}

// Write implements io.Writer
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, s)
}

// Title prints a heading
func (p *Printer) Title(s string) {
	p.println(p.paint(TitleStyle, s))
}

// Info prints a neutral line
func (p *Printer) Info(format string, args ...interface{}) {
	p.println(p.paint(InfoStyle, InfoSymbol) + " " + fmt.Sprintf(format, args...))
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...interface{}) {
	p.println(p.paint(WarningStyle, WarningSymbol) + " " + fmt.Sprintf(format, args...))
}

// Error prints an error line
func (p *Printer) Error(format string, args ...interface{}) {
	p.println(p.paint(ErrorStyle, ErrorSymbol) + " " + fmt.Sprintf(format, args...))
}

// WouldDo prints a dry-run line
func (p *Printer) WouldDo(format string, args ...interface{}) {
	p.println(p.paint(MutedStyle, WouldSymbol+" would "+fmt.Sprintf(format, args...)))
}

// ModuleStarted implements pipeline.Observer
func (p *Printer) ModuleStarted(d pipeline.Descriptor) {
	p.println(p.paint(ModuleStyle, "==> "+d.Label()))
}

// ModuleFinished implements pipeline.Observer
func (p *Printer) ModuleFinished(e pipeline.Entry) {
	switch e.Outcome {
	case pipeline.Success:
		p.println(fmt.Sprintf("%s %s %s", p.paint(SuccessStyle, SuccessSymbol), e.DisplayName,
			p.paint(MutedStyle, formatDuration(e.Duration))))
	case pipeline.Failure:
		p.println(fmt.Sprintf("%s %s: %v", p.paint(ErrorStyle, ErrorSymbol), e.DisplayName, e.Err))
	}
}

// TaskStarted implements clone.Observer
func (p *Printer) TaskStarted(t clone.Task) {
	p.println(fmt.Sprintf("  %s cloning %s", p.paint(InfoStyle, InfoSymbol), t.RepoName))
}

// TaskFinished implements clone.Observer
func (p *Printer) TaskFinished(t clone.Task) {
	if t.Status == clone.Succeeded {
		p.println(fmt.Sprintf("  %s %s %s", p.paint(SuccessStyle, SuccessSymbol), t.RepoName, p.paint(PathStyle, t.Target())))
		return
	}
	p.println(fmt.Sprintf("  %s %s: %s", p.paint(ErrorStyle, ErrorSymbol), t.RepoName, t.Reason))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
