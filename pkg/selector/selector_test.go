package selector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nonTerminalSelector(t *testing.T) *PtermSelector {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return &PtermSelector{in: f}
}

func TestPtermSelectorCancelsWithoutTerminal(t *testing.T) {
	s := nonTerminalSelector(t)

	chosen := s.Choose([]Item{{Label: "work", Value: "work"}}, "Where?")
	assert.Empty(t, chosen)

	text, ok := s.Input("Folder")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestPtermSelectorNoItems(t *testing.T) {
	s := nonTerminalSelector(t)
	assert.Nil(t, s.Choose(nil, "Where?"))
}

func TestPtermSelectorImplementsSelector(t *testing.T) {
	var _ Selector = NewPtermSelector()
}
