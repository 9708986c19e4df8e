package cmd

import (
	"fmt"
	"strings"

	"github.com/fewx/gfsproc/internal/log"
	"github.com/fewx/gfsproc/internal/models"
)

func outcomeMark(outcome models.StageOutcome) string {
	switch outcome {
	case models.OutcomeSuccess:
		return "✓"
	case models.OutcomeDegraded:
		return "!"
	case models.OutcomeSkipped:
		return "-"
	}
	return "✖"
}

// formatReport renders a run report for the terminal, one line per stage.
func formatReport(report *models.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s  cycle %02dz  date %s\n", report.RunId, report.Cycle, report.Date)
	for _, st := range report.Stages {
		line := fmt.Sprintf("  %s %-18s %3d%%  %6dms", outcomeMark(st.Outcome), st.Name, st.Progress, st.DurationMs)
		if st.Error != "" {
			line += "  " + st.Error
		}
		b.WriteString(line + "\n")
	}

	fmt.Fprintf(&b, "Status: %s (%d failed) in %s\n", report.OverallStatus, report.StagesFailed, formatDuration(report.DurationMs))
	if report.FirstFailure != nil {
		fmt.Fprintf(&b, "First problem: %s (%s)\n", report.FirstFailure.Name, report.FirstFailure.Outcome)
	}
	return b.String()
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := ms / 1000
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}

func printReport(console *log.ConsoleLogger, report *models.RunReport) {
	console.Info("%s", strings.TrimRight(formatReport(report), "\n"))
}
