package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"shrinkray/internal/codec"
	"shrinkray/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SessionRows describes a finished session for RenderSummary.
func SessionRows(snap processor.Snapshot, s processor.Settings) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Session", Value: snap.ID},
		{Label: "Outcome", Value: snap.State.String()},
		{Label: "Images processed", Value: fmt.Sprintf("%d of %d", snap.Processed, snap.Total)},
		{Label: "Failed", Value: fmt.Sprintf("%d", snap.Failed)},
		{Label: "Elapsed", Value: snap.Elapsed.Round(time.Millisecond).String()},
		{Label: "Throughput", Value: fmt.Sprintf("%.1f img/s", snap.Rate)},
	}
	for _, f := range codec.Formats {
		if s.Enabled(f) {
			rows = append(rows, SummaryRow{Label: f.Label() + " output", Value: s.OutputRoot(f)})
		}
	}
	if snap.Err != nil {
		rows = append(rows, SummaryRow{Label: "Error", Value: snap.Err.Error()})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)
