package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/matzehuels/wsbuild/pkg/scheduler"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconSkipped = "-"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// =============================================================================
// Plan and Summary
// =============================================================================

// printPlan prints the order a run will follow. Skipped packages are shown
// in parentheses and dimmed.
func printPlan(w io.Writer, plan *scheduler.Plan) {
	fmt.Fprintln(w, StyleTitle.Render("# Topological order"))
	for _, e := range plan.Entries {
		if e.Skip {
			fmt.Fprintln(w, " - "+StyleDim.Render("("+e.Package.Name+")"))
			continue
		}
		fmt.Fprintln(w, " - "+StyleValue.Render(e.Package.Name))
	}
}

// printSummary prints the outcome of a run, e.g.
// "✓ Built 12 packages in 3 minutes".
func printSummary(w io.Writer, verb string, rep *scheduler.Report, testFailures []string) {
	took := humanizeDuration(rep.Duration)
	switch {
	case len(rep.Failed) > 0:
		printError(w, "%s failed for %s after %s", verb, english.Plural(len(rep.Failed), "package", ""), took)
		for _, name := range rep.Failed {
			printDetail(w, "%s %s", iconError, name)
		}
	default:
		printSuccess(w, "%s %s in %s", pastTense(verb), english.Plural(len(rep.Done), "package", ""), took)
	}
	if len(rep.NotRun) > 0 {
		printWarning(w, "%s not started: %s", english.Plural(len(rep.NotRun), "package", ""), strings.Join(rep.NotRun, ", "))
	}
	if len(testFailures) > 0 {
		printWarning(w, "tests failed in %s: %s", english.Plural(len(testFailures), "package", ""), strings.Join(testFailures, ", "))
	}
}

// humanizeDuration renders d the way humanize renders ages: "3 minutes",
// "now" for anything under a second.
func humanizeDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	now := time.Now()
	return strings.TrimSuffix(humanize.RelTime(now.Add(-d), now, "", ""), " ")
}

func pastTense(verb string) string {
	switch verb {
	case "build":
		return "Built"
	case "test":
		return "Tested"
	case "uninstall":
		return "Uninstalled"
	}
	return strings.ToUpper(verb[:1]) + verb[1:]
}
