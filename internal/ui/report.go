// Package ui renders reports for the terminal.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"perfgate/internal/alert"
	"perfgate/internal/fold"
	"perfgate/internal/metric"
	"perfgate/internal/report"
	"perfgate/internal/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	benchmarkStyle = lipgloss.NewStyle().Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))
)

// RenderReport writes a human readable view of r. Measures that raised an
// alert are flagged inline and listed again at the end.
func RenderReport(w io.Writer, r *report.Report, alerts []alert.Alert) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Benchmark Report"))
	b.WriteString("\n")
	if r.Project != "" {
		field(&b, "Project", r.Project)
	}
	field(&b, "Branch", r.Branch)
	field(&b, "Testbed", r.Testbed)
	if r.Hash != "" {
		field(&b, "Hash", r.Hash)
	}
	field(&b, "Start", r.StartTime.Format("2006-01-02 15:04:05Z07:00"))
	field(&b, "Elapsed", r.Elapsed().String())
	field(&b, "Iterations", strconv.Itoa(len(r.Results)))
	if r.Settings.Fold != nil {
		field(&b, "Fold", fold.String(r.Settings.Fold))
	}

	flagged := make(map[string]alert.Alert, len(alerts))
	for _, a := range alerts {
		flagged[a.Benchmark+"\x00"+a.Measure] = a
	}

	latest := r.Latest()
	if latest == nil || latest.Len() == 0 {
		b.WriteString("\nNo benchmark results.\n")
	} else {
		for _, bench := range latest.Benchmarks() {
			b.WriteString("\n")
			b.WriteString(benchmarkStyle.Render(bench.Name))
			b.WriteString("\n")
			for _, slug := range bench.Measures.Slugs() {
				line := fmt.Sprintf("  %-20s %s", slug, formatMetric(bench.Measures[slug]))
				if a, ok := flagged[bench.Name+"\x00"+slug]; ok {
					line += "  " + alertStyle.Render(fmt.Sprintf("ALERT %s limit %s", a.Side, formatFloat(a.Limit)))
				}
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	if len(alerts) == 0 {
		b.WriteString(okStyle.Render("No alerts"))
		b.WriteString("\n")
	} else {
		b.WriteString(alertStyle.Render((&alert.AlertsError{Count: len(alerts)}).Error()))
		b.WriteString("\n")
		for _, a := range alerts {
			b.WriteString("  ")
			b.WriteString(a.String())
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHistory writes stored report summaries as a table, newest first.
func RenderHistory(w io.Writer, summaries []store.Summary) error {
	var b strings.Builder
	if len(summaries) == 0 {
		b.WriteString("No reports stored.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(fmt.Sprintf("%-36s %-20s %-16s %-16s %-12s %-10s %s\n", "ID", "STARTED", "BRANCH", "TESTBED", "HASH", "BENCHES", "ALERTS"))
	b.WriteString(strings.Repeat("-", 122) + "\n")
	for _, s := range summaries {
		hash := s.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		alerts := strconv.Itoa(s.Alerts)
		if s.Alerts > 0 {
			alerts = alertStyle.Render(alerts)
		}
		b.WriteString(fmt.Sprintf("%-36s %-20s %-16s %-16s %-12s %-10d %s\n",
			s.ID,
			s.StartTime.Format("2006-01-02 15:04:05"),
			s.Branch,
			s.Testbed,
			hash,
			s.Benchmarks,
			alerts,
		))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-11s", label+":")))
	b.WriteString(" ")
	b.WriteString(value)
	b.WriteString("\n")
}

func formatMetric(m metric.Metric) string {
	s := formatFloat(m.Value)
	if m.LowerValue != nil || m.UpperValue != nil {
		lo, hi := "-", "-"
		if m.LowerValue != nil {
			lo = formatFloat(*m.LowerValue)
		}
		if m.UpperValue != nil {
			hi = formatFloat(*m.UpperValue)
		}
		s += fmt.Sprintf(" [%s, %s]", lo, hi)
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
