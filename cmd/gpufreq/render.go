package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"codeberg.org/mutker/gpufreq/internal/history"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

var (
	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// printer writes one line per state. Styling is only applied when the
// output is a terminal.
type printer struct {
	out    io.Writer
	styled bool
}

func newPrinter(out io.Writer, styled bool) *printer {
	return &printer{out: out, styled: styled}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) Print(state gpufreq.State) {
	fmt.Fprintln(p.out, p.Format(state))
}

func (p *printer) Format(state gpufreq.State) string {
	switch st := state.(type) {
	case gpufreq.Available:
		return p.formatSample(st.Sample)
	case gpufreq.RequiresPrivilege:
		return p.render(warnStyle, "root access required to read the GPU clock")
	case gpufreq.NotSupported:
		return p.render(warnStyle, "GPU clock not exposed on this device")
	case gpufreq.Error:
		return p.render(errorStyle, "error: "+st.Message)
	default:
		return p.render(errorStyle, "unknown state")
	}
}

func (p *printer) formatSample(s gpufreq.Sample) string {
	parts := []string{p.render(valueStyle, fmt.Sprintf("%4d MHz", s.CurrentMHz))}

	switch {
	case s.HasMax() && s.HasMin():
		if p.styled {
			parts = append(parts, renderBar(s.CurrentMHz, s.MinMHz, s.MaxMHz, barWidth))
		}
		parts = append(parts, p.render(labelStyle, fmt.Sprintf("range %d-%d MHz", s.MinMHz, s.MaxMHz)))
	case s.HasMax():
		parts = append(parts, p.render(labelStyle, fmt.Sprintf("max %d MHz", s.MaxMHz)))
	case s.HasMin():
		parts = append(parts, p.render(labelStyle, fmt.Sprintf("min %d MHz", s.MinMHz)))
	}
	if s.HasAvailable() {
		parts = append(parts, p.render(labelStyle, fmt.Sprintf("%d steps", len(s.AvailableMHz))))
	}
	if s.HasGovernor() {
		parts = append(parts, p.render(labelStyle, "governor "+s.Governor))
	}
	parts = append(parts,
		p.render(labelStyle, s.Vendor.String()),
		p.render(labelStyle, s.SourcePath))

	return strings.Join(parts, "  ")
}

// renderBar shows where current sits between minimum and maximum.
func renderBar(current, minMHz, maxMHz, width int) string {
	percent := 0.0
	if span := maxMHz - minMHz; span > 0 {
		percent = float64(current-minMHz) / float64(span) * 100
	}
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(float64(width) * percent / 100.0)
	empty := width - filled

	color := lipgloss.Color("10")
	switch {
	case percent >= 90:
		color = lipgloss.Color("196")
	case percent >= 60:
		color = lipgloss.Color("214")
	}

	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}

func (p *printer) PrintEntries(entries []history.Entry) {
	for _, e := range entries {
		line := e.Timestamp.Format(time.RFC3339) + "  " + e.State
		switch {
		case e.State == gpufreq.KindAvailable:
			line += fmt.Sprintf("  %d MHz  %s  %s", e.CurrentMHz, e.Vendor, e.SourcePath)
		case e.Message != "":
			line += "  " + e.Message
		}
		fmt.Fprintln(p.out, line)
	}
}
