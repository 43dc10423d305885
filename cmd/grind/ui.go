package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// styleSet holds the terminal styles used for loop progress output.
// Styling is disabled when the writer is not a terminal.
type styleSet struct {
	Heading lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

func newStyleSet(w io.Writer) styleSet {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if !styled {
		plain := lipgloss.NewStyle()
		return styleSet{Heading: plain, Success: plain, Failure: plain, Muted: plain}
	}
	return styleSet{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// renderSummary writes the end-of-run report.
func renderSummary(w io.Writer, styles styleSet, summary RunSummary) {
	style := styles.Success
	switch summary.StopReason {
	case StopError:
		style = styles.Failure
	case StopCancelled:
		style = styles.Muted
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Heading.Render("Run complete"))
	fmt.Fprintf(w, "  Stop reason: %s\n", style.Render(string(summary.StopReason)))
	fmt.Fprintf(w, "  Iterations:  %d\n", summary.IterationsRun)
	fmt.Fprintf(w, "  Duration:    %s\n", summary.Duration)
	if summary.Diagnostic != "" {
		fmt.Fprintf(w, "  Detail:      %s\n", summary.Diagnostic)
	}
}
