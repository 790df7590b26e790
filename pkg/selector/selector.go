// Package selector asks the user to pick among labeled items. It is only used
// when a decision cannot be derived from configuration.
package selector

import (
	"os"
	"strings"

	"github.com/arthur-debert/macsetup/pkg/logging"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Item is one choice offered to the user
type Item struct {
	Label string
	Value string
}

// Selector presents choices. An empty result from Choose and ok=false from
// Input both mean the user cancelled.
type Selector interface {
	Choose(items []Item, prompt string) []string
	Input(prompt string) (string, bool)
}

// PtermSelector prompts on the terminal using pterm's interactive printers
type PtermSelector struct {
	in *os.File
}

// NewPtermSelector returns a selector reading from stdin
func NewPtermSelector() *PtermSelector {
	return &PtermSelector{in: os.Stdin}
}

func (s *PtermSelector) interactive() bool {
	fd := s.in.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Choose shows a single-choice menu and returns the chosen item's value
func (s *PtermSelector) Choose(items []Item, prompt string) []string {
	log := logging.GetLogger("selector")
	if len(items) == 0 {
		return nil
	}
	if !s.interactive() {
		log.Warn().Str("prompt", prompt).Msg("Not a terminal, cannot ask")
		return nil
	}

	labels := make([]string, len(items))
	byLabel := make(map[string]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
		byLabel[item.Label] = item.Value
	}

	picked, err := pterm.DefaultInteractiveSelect.
		WithOptions(labels).
		WithDefaultText(prompt).
		WithMaxHeight(15).
		Show()
	if err != nil {
		log.Debug().Err(err).Msg("Selection aborted")
		return nil
	}

	value, ok := byLabel[picked]
	if !ok {
		return nil
	}
	return []string{value}
}

// Input asks for a free-form line
func (s *PtermSelector) Input(prompt string) (string, bool) {
	log := logging.GetLogger("selector")
	if !s.interactive() {
		log.Warn().Str("prompt", prompt).Msg("Not a terminal, cannot ask")
		return "", false
	}

	text, err := pterm.DefaultInteractiveTextInput.WithDefaultText(prompt).Show()
	if err != nil {
		log.Debug().Err(err).Msg("Input aborted")
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
