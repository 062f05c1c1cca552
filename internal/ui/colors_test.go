package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestDisableColors(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	DisableColors()

	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	styled := lipgloss.NewStyle().Foreground(ColorError).Render("boom")
	assert.Equal(t, "boom", styled)
}

func TestConfigureColors_NoColorFlag(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	lipgloss.SetColorProfile(termenv.ANSI256)
	ConfigureColors(true)

	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
}

func TestSymbols(t *testing.T) {
	symbols := []string{SymbolSuccess, SymbolFail, SymbolPending, SymbolComplete, SymbolSkipped}
	seen := make(map[string]bool)
	for _, s := range symbols {
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "symbol %q duplicated", s)
		seen[s] = true
	}
}
