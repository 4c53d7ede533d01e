package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"pinscraper/pkg/ui"
)

const logo = `
╔══════════════════════════════════════════════════════════════╗
║      P I N S C R A P E R  ·  Pinterest image extraction      ║
╚══════════════════════════════════════════════════════════════╝`

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{logoStyle.Width(m.width).Render(logo)}

	width := min(m.width-4, 100)
	switch m.screen {
	case screenForm:
		sections = append(sections, m.renderForm(width))
	case screenRun:
		sections = append(sections, m.renderRun(width), m.renderLogsPanel(width))
	default:
		sections = append(sections, m.renderResults(width), m.renderLogsPanel(width))
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render(m.hint()))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m Model) hint() string {
	switch m.screen {
	case screenForm:
		return "tab/↑↓ move • ←/→ or space change • enter start • esc quit"
	case screenRun:
		return "s stop • ? help • ctrl+c quit"
	default:
		return "n new search • q quit • ? help"
	}
}

// renderForm renders the search form
func (m Model) renderForm(width int) string {
	title := titleStyle.Render(" NEW SEARCH ")

	label := func(field int, text string) string {
		if m.focus == field {
			return focusedLabelStyle.Render("› " + text)
		}
		return labelStyle.Render("  " + text)
	}

	var presets []string
	for i, q := range qualityLabels() {
		if i == m.qualityIdx {
			presets = append(presets, valueStyle.Bold(true).Render("["+q+"]"))
		} else {
			presets = append(presets, itemDimStyle.Render(" "+q+" "))
		}
	}

	headless := "off"
	if m.headless {
		headless = "on"
	}

	rows := []string{
		label(fieldQuery, "Search query") + m.inputs[fieldQuery].View(),
		label(fieldImages, fmt.Sprintf("Images (1-%d)", m.defaults.MaxImages)) + m.inputs[fieldImages].View(),
		label(fieldFolder, "Folder") + m.inputs[fieldFolder].View(),
		label(fieldQuality, "Quality") + strings.Join(presets, " "),
		label(fieldHeadless, "Headless") + valueStyle.Render(headless),
	}
	if m.formErr != "" {
		rows = append(rows, "", errorStyle.Render("✗ "+m.formErr))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(rows, "\n")),
	)
}

// renderRun renders the progress of the current run
func (m Model) renderRun(width int) string {
	title := titleStyle.Render(" SCRAPING ")

	status := string(m.snap.Status)
	rows := []string{
		fmt.Sprintf("%s %s", m.spinner.View(), valueStyle.Render(m.snap.Message)),
		"",
		m.bar.ViewAs(m.percent()),
		fmt.Sprintf("%s%s", labelStyle.Render("Query"), valueStyle.Render(m.snap.Query)),
		fmt.Sprintf("%s%s", labelStyle.Render("Images"), valueStyle.Render(fmt.Sprintf("%d/%d", m.snap.Current, m.snap.Total))),
		fmt.Sprintf("%s%s", labelStyle.Render("Status"), statusStyle(status).Render(status)),
		fmt.Sprintf("%s%s", labelStyle.Render("Elapsed"), valueStyle.Render(formatDuration(time.Since(m.startTime)))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(rows, "\n")),
	)
}

// renderResults renders the images saved by the last run
func (m Model) renderResults(width int) string {
	title := titleStyle.Render(" RESULTS ")

	status := string(m.snap.Status)
	rows := []string{
		statusStyle(status).Render(m.snap.Message),
		"",
	}
	if m.snap.Error != nil {
		rows = append(rows, errorStyle.Render(*m.snap.Error), "")
	}

	switch {
	case m.resultsErr != "":
		rows = append(rows, errorStyle.Render("Could not list folder: "+m.resultsErr))
	case len(m.results) == 0:
		rows = append(rows, itemDimStyle.Render("No images in "+m.destination))
	default:
		rows = append(rows, fmt.Sprintf("%s%s",
			labelStyle.Render("Folder"),
			valueStyle.Render(fmt.Sprintf("%s (%d files, %s)", m.destination, len(m.results), ui.FormatBytes(m.totalSize()))),
		))
		shown := m.results
		limit := max(5, m.height-30)
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, f := range shown {
			rows = append(rows, itemStyle.Render(fmt.Sprintf("🖼  %-40s %s", f.Name, itemDimStyle.Render(ui.FormatBytes(f.Size)))))
		}
		if len(m.results) > len(shown) {
			rows = append(rows, itemDimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.results)-len(shown))))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(rows, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := max(0, len(m.logMessages)-8)

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		message := log.Message
		if maxLen := width - 25; maxLen > 3 && len(message) > maxLen {
			message = message[:maxLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = itemDimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Form:
    tab/↑↓   - Move between fields
    ←/→      - Change quality or headless
    enter    - Start scraping

  Running:
    s        - Stop the run (images saved so far are kept)

  Results:
    n        - New search
    q        - Quit

    ?        - Toggle this help
`
	return panelStyle.Width(min(m.width-4, 100)).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
