package summary

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/mecfleet/internal/errors"
	"github.com/rileyhilliard/mecfleet/internal/ui"
	"github.com/rileyhilliard/mecfleet/internal/util"
)

// Render prints the run summary: failures grouped by text, then the success total.
//
//	[SUMMARY]
//	  ✗ FAILURE COUNT: 2
//	    ERROR: not eligible for calibration
//	      Devices: 2 4
//	  ✓ SUCCESS COUNT: 3
//	    Devices: 1 3 5
func Render(w io.Writer, s Summary) {
	headerStyle := lipgloss.NewStyle().Foreground(ui.ColorSecondary).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	failStyle := mutedStyle
	if s.FailureCount > 0 {
		failStyle = errorStyle
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("[SUMMARY]"))

	fmt.Fprintf(w, "  %s\n", failStyle.Render(fmt.Sprintf("%s FAILURE COUNT: %d", ui.SymbolFail, s.FailureCount)))
	for _, group := range s.Failures {
		text := group.Text
		if text == "" {
			text = mutedStyle.Render("(no output)")
		}
		fmt.Fprintf(w, "    ERROR: %s\n", text)
		fmt.Fprintf(w, "      %s %s\n", mutedStyle.Render("Devices:"), util.JoinInts(group.DeviceIDs))
	}

	fmt.Fprintf(w, "  %s\n", successStyle.Render(fmt.Sprintf("%s SUCCESS COUNT: %d", ui.SymbolSuccess, s.SuccessCount)))
	fmt.Fprintf(w, "    %s %s\n", mutedStyle.Render("Devices:"), util.JoinInts(s.Successes))
}

// FormatBrief returns a one-line summary string.
func FormatBrief(s Summary) string {
	return fmt.Sprintf("%d %s succeeded, %d %s failed",
		s.SuccessCount, util.Pluralize(s.SuccessCount, "device", "devices"),
		s.FailureCount, util.Pluralize(s.FailureCount, "outcome", "outcomes"))
}

// WriteReport writes the summary to path as YAML.
func WriteReport(path string, s Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't encode the run report",
			"This shouldn't happen - please report this bug!")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write report %s", path),
			"Check the directory exists and is writable.")
	}
	return nil
}
