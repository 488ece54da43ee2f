package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/breate/internal/api"
	"github.com/five82/breate/internal/engine"
	"github.com/five82/breate/internal/state"
)

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{styles.Logo.Render("breate")}
	for i, tab := range m.tabs {
		title := tab.Title
		if title == "" {
			title = titleCase(tab.Screen.Name())
		}
		if i == m.active {
			parts = append(parts, styles.TabActive.Render(title))
		} else {
			parts = append(parts, styles.Tab.Render(title))
		}
	}
	return styles.Header.Width(maxInt(0, m.width)).Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (m Model) renderFilters() string {
	styles := m.theme.Styles()
	tab := m.tabs[m.active]

	var parts []string
	if tab.SearchField != "" {
		parts = append(parts, m.input.View())
	}
	for _, c := range tab.Cycles {
		label := "All"
		if idx := m.cycles[m.active][c.Key]; idx < len(c.Choices) && len(c.Choices) > 0 {
			label = c.Choices[idx].Label
		}
		parts = append(parts, styles.MutedText.Render(c.Label+": ")+styles.AccentText.Render(label))
	}
	if len(parts) == 0 {
		return styles.FaintText.Render("No filters on this screen")
	}
	return strings.Join(parts, "   ")
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	if m.notice != "" {
		return styles.DangerText.Render(m.notice)
	}
	tab := m.tabs[m.active]
	text, tone := statusLine(m.views[m.active], tab.IdleHint)
	switch tone {
	case toneDanger:
		return styles.DangerText.Render(text)
	case toneWarning:
		return styles.WarningText.Render(text)
	case toneInfo:
		return styles.InfoText.Render(text)
	default:
		return styles.MutedText.Render(text)
	}
}

type tone int

const (
	toneMuted tone = iota
	toneInfo
	toneWarning
	toneDanger
)

// statusLine summarizes a view in one line.
func statusLine(v engine.View, idleHint string) (string, tone) {
	switch {
	case v.Idle:
		if idleHint == "" {
			idleHint = "Type to search"
		}
		return idleHint, toneMuted
	case v.Loading && !v.Loaded:
		return "Loading...", toneInfo
	case v.LastError != nil:
		msg := api.UserMessage(v.LastError)
		if v.IsOffline() {
			msg = "Offline: " + msg
		}
		if len(v.Items) > 0 {
			msg += " Showing last results."
		}
		if v.IsOffline() {
			return msg, toneDanger
		}
		return msg, toneWarning
	case v.Loaded && len(v.Items) == 0:
		if !v.Criteria.Empty() {
			return "No results match these filters", toneMuted
		}
		return "No results", toneMuted
	}

	text := fmt.Sprintf("%d results", len(v.Items))
	if v.Total != len(v.Items) {
		text = fmt.Sprintf("%d of %d results", len(v.Items), v.Total)
	}
	if v.Loading {
		text += " · refreshing"
	}
	if v.Pending > 0 {
		text += fmt.Sprintf(" · %d unsynced", v.Pending)
	}
	if !v.LastUpdated.IsZero() {
		text += " · updated " + v.LastUpdated.Format("15:04:05")
	}
	return text, toneMuted
}

func (m Model) renderList() string {
	styles := m.theme.Styles()
	tab := m.tabs[m.active]
	view := m.views[m.active]

	var b strings.Builder
	titles := make([]string, 0, len(tab.Columns))
	for _, c := range tab.Columns {
		titles = append(titles, cell(c.Title, c.Width))
	}
	b.WriteString(styles.Column.Render(strings.Join(titles, " ")))
	b.WriteString("\n")

	rows := m.listHeight()
	start := 0
	if sel := m.selected[m.active]; sel >= rows {
		start = sel - rows + 1
	}
	end := start + rows
	if end > len(view.Items) {
		end = len(view.Items)
	}
	for i := start; i < end; i++ {
		line := renderRow(tab, view.Items[i])
		if i == m.selected[m.active] {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := end - start; i < rows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(tab Tab, item state.Item) string {
	cells := make([]string, 0, len(tab.Columns))
	for _, c := range tab.Columns {
		value := item.String(c.Field)
		if c.Field == tab.ToggleField && tab.ToggleField != "" {
			value = "·"
			if item.Bool(c.Field) {
				value = "★"
			}
		}
		cells = append(cells, cell(value, c.Width))
	}
	return strings.Join(cells, " ")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	tab := m.tabs[m.active]
	hints := []string{"tab screens", "↑/↓ select", "ctrl+r refresh"}
	for _, c := range tab.Cycles {
		hints = append(hints, c.Key+" "+c.Label)
	}
	if tab.ToggleKind != "" {
		hints = append(hints, "ctrl+s "+tab.ToggleKind)
	}
	hints = append(hints, "ctrl+t theme", "f1 help", "esc quit")
	return styles.Footer.Width(maxInt(0, m.width)).Render(strings.Join(hints, " · "))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	lines := []string{
		styles.Logo.Render("breate keys"),
		"",
		"tab / shift+tab   switch screen",
		"type              search (debounced)",
		"↑ ↓ pgup pgdown   move selection",
		"ctrl+s            toggle saved on the selected row",
		"ctrl+r            refresh now",
		"ctrl+t            cycle theme (" + strings.Join(ThemeNames(), ", ") + ")",
		"esc / ctrl+c      quit",
	}
	for _, tab := range m.tabs {
		for _, c := range tab.Cycles {
			lines = append(lines, fmt.Sprintf("%-17s cycle %s on %s", c.Key, c.Label, strings.ToLower(tab.Title)))
		}
	}
	lines = append(lines, "", styles.MutedText.Render("Press any key to close"))
	return strings.Join(lines, "\n")
}
