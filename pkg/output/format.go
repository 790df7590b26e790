package output

import (
	"os"
	"strings"

	macerrors "github.com/arthur-debert/macsetup/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format is the output style
type Format int

const (
	// FormatAuto picks terminal or text from the output's capabilities
	FormatAuto Format = iota
	// FormatTerminal renders colors and symbols
	FormatTerminal
	// FormatText renders plain text
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatTerminal:
		return "term"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFormat parses the --format flag
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return FormatAuto, nil
	case "term", "terminal":
		return FormatTerminal, nil
	case "text", "plain":
		return FormatText, nil
	default:
		return FormatAuto, macerrors.Newf(macerrors.ErrInvalidInput, "unknown format %q (want auto, term or text)", s)
	}
}

// DetectFormat falls back to plain text when NO_COLOR is set, when f is not
// a terminal (piped into a log during unattended setup), or when the terminal
// cannot render colors.
func DetectFormat(f *os.File) Format {
	noColor := os.Getenv("NO_COLOR") != ""
	fd := f.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if noColor || !tty || termenv.ColorProfile() == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
