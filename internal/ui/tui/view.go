package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder
	renderHeader(&b, m)
	renderPhases(&b, m)
	renderFooter(&b, m)
	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "pedl-deploy: " + m.Title
	b.WriteString(titleStyle.Render(title))
	if m.Subtitle != "" {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf(" (%s)", m.Subtitle)))
	}

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Complete")
	default:
		status += warningStyle.Render("In progress")
	}
	b.WriteString(status)
	b.WriteString("\n\n")
}

func renderPhases(b *strings.Builder, m Model) {
	for _, phase := range m.Phases {
		var icon string
		var style styleFunc
		switch {
		case phase.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case phase.Skipped:
			icon = skipMark
			style = sf(dimStyle)
		case phase.Done:
			icon = checkMark
			style = sf(readyStyle)
		case phase.Active:
			icon = " " + m.Spinner.View() + " "
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}

		line := fmt.Sprintf("  %s %s", style(icon), style(phase.Name))
		if phase.Elapsed > 0 && !phase.Skipped {
			line += dimStyle.Render("  " + formatDuration(phase.Elapsed))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := time.Duration(0)
	if !m.StartTime.IsZero() {
		elapsed = m.clock().Sub(m.StartTime)
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  Elapsed: %s  q: quit", formatDuration(elapsed))))
	b.WriteString("\n")
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
