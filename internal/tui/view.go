package tui

import (
	"fmt"
	"math"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/dragboard/internal/domain"
)

var (
	accentColor  = lipgloss.Color("62")
	mutedColor   = lipgloss.Color("241")
	dimColor     = lipgloss.Color("239")
	warningColor = lipgloss.Color("203")
	hoverColor   = lipgloss.Color("212")
)

// View handles view.
func (m Model) View() tea.View {
	var content string
	switch {
	case m.err != nil:
		content = "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	case !m.ready:
		content = "loading..."
	default:
		content = m.renderScreen()
	}
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderScreen paints the board from measured rectangles, then the hover
// preview, details and help on top.
func (m Model) renderScreen() string {
	width, height := max(1, m.width), max(1, m.height)
	layers := []*lipgloss.Layer{lipgloss.NewLayer(m.renderHeader(width)).X(0).Y(0).Z(0)}

	for ci, col := range m.columns {
		x, y, w, h, ok := m.cellRect(col.Layout)
		if !ok {
			continue
		}
		if col.Hidden {
			layers = append(layers, lipgloss.NewLayer(placeholder(w, h)).X(x).Y(y).Z(1))
			continue
		}
		layers = append(layers, lipgloss.NewLayer(m.renderColumn(col, w, h, ci == m.selectedColumn)).X(x).Y(y).Z(1))
		for ri, row := range col.Rows {
			if !m.rowVisible(col, row) {
				continue
			}
			rx, ry, _, rh, ok := m.cellRect(row.Layout)
			if !ok {
				continue
			}
			cardW := max(4, w-2)
			if row.Hidden {
				layers = append(layers, lipgloss.NewLayer(placeholder(cardW, rh)).X(rx+1).Y(ry).Z(2))
				continue
			}
			selected := ci == m.selectedColumn && ri == m.selectedRow
			layers = append(layers, lipgloss.NewLayer(m.renderCard(row.Data, cardW, rh, selected, false)).X(rx+1).Y(ry).Z(2))
		}
	}

	if preview, x, y, ok := m.renderHover(width, height); ok {
		layers = append(layers, lipgloss.NewLayer(preview).X(x).Y(y).Z(10))
	}
	if m.showDetails {
		if pane, x, ok := m.renderDetails(width, height); ok {
			layers = append(layers, lipgloss.NewLayer(pane).X(x).Y(boardTop).Z(20))
		}
	}
	layers = append(layers, lipgloss.NewLayer(m.renderFooter(width)).X(0).Y(max(0, height-footerHeight)).Z(30))
	if m.help.ShowAll {
		overlay := m.renderHelpOverlay(width)
		x := max(0, (width-lipgloss.Width(overlay))/2)
		y := max(0, (height-lipgloss.Height(overlay))/2)
		layers = append(layers, lipgloss.NewLayer(overlay).X(x).Y(y).Z(40))
	}
	// Canvas.Compose draws a bare layer at the origin; the compositor applies offsets and z order.
	return lipgloss.NewCanvas(width, height).Compose(lipgloss.NewCompositor(layers...)).Render()
}

// cellRect rounds a measured rectangle to cells and rejects anything not
// fully on the board area.
func (m Model) cellRect(r *domain.Rect) (x, y, w, h int, ok bool) {
	if r == nil {
		return 0, 0, 0, 0, false
	}
	x = int(math.Round(r.X))
	y = int(math.Round(r.Y))
	w = int(math.Round(r.Width))
	h = int(math.Round(r.Height))
	if w < 3 || h < 3 || x < 0 || y < boardTop || x+w > m.width || y+h > m.height-footerHeight {
		return 0, 0, 0, 0, false
	}
	return x, y, w, h, true
}

func (m Model) renderHeader(width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("dragboard")
	rows := 0
	for _, col := range m.columns {
		rows += len(col.Rows)
	}
	info := fmt.Sprintf("  %d columns • %d rows", len(m.columns), rows)
	if m.maxScroll > 0 {
		info += fmt.Sprintf(" • scroll %.0f/%.0f", m.scroll, m.maxScroll)
	}
	if m.dragging {
		info += " • dragging"
	}
	return title + lipgloss.NewStyle().Foreground(dimColor).Render(truncate(info, max(0, width-9)))
}

func (m Model) renderColumn(col domain.Column, w, h int, selected bool) string {
	inner := max(1, w-2)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	header := fmt.Sprintf("%s (%d)", col.Data.Name, len(col.Rows))
	if col.Data.WIPLimit > 0 {
		header = fmt.Sprintf("%s (%d/%d)", col.Data.Name, len(col.Rows), col.Data.WIPLimit)
	}
	lines := []string{titleStyle.Render(truncate(header, inner))}
	if col.OverLimit() {
		warn := lipgloss.NewStyle().Bold(true).Foreground(warningColor)
		lines = append(lines, warn.Render(truncate("WIP limit exceeded", inner)))
	}
	if len(col.Rows) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render(truncate("(empty)", inner)))
	}
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dimColor)
	if selected {
		style = style.BorderForeground(accentColor)
	}
	return boxed(style, lines, w, h)
}

func (m Model) renderCard(data domain.RowData, w, h int, selected, floating bool) string {
	inner := max(1, w-2)
	titleStyle := lipgloss.NewStyle()
	if selected || floating {
		titleStyle = titleStyle.Bold(true).Foreground(hoverColor)
	}
	sub := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{titleStyle.Render(truncate(data.Title, inner))}
	if labels := summarizeLabels(data.Labels, 3); labels != "" {
		lines = append(lines, sub.Render(truncate(labels, inner)))
	}
	if m.cards.ShowDescriptions && data.Description != "" {
		first, _, _ := strings.Cut(data.Description, "\n")
		lines = append(lines, sub.Render(truncate(first, inner)))
	}
	style := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(dimColor)
	switch {
	case floating:
		style = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(hoverColor)
	case selected:
		style = style.BorderForeground(accentColor)
	}
	return boxed(style, lines, w, h)
}

// renderHover draws the dragged entity at the pickup rectangle moved by the pointer translation.
func (m Model) renderHover(width, height int) (string, int, int, bool) {
	rect, ok := m.hover.Rect()
	if !ok {
		return "", 0, 0, false
	}
	item := m.hover.Item
	w := int(math.Round(rect.Width))
	h := int(math.Round(rect.Height))
	var out string
	switch item.Kind {
	case domain.DragRow:
		w = max(4, w-2)
		out = m.renderCard(item.Row, w, h, false, true)
	case domain.DragColumn:
		style := lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(hoverColor)
		out = boxed(style, []string{lipgloss.NewStyle().Bold(true).Render(truncate(item.Column.Name, max(1, w-2)))}, w, min(h, columnHeaderHeight+2))
	default:
		return "", 0, 0, false
	}
	x := clamp(int(math.Round(rect.X))+1, 0, max(0, width-lipgloss.Width(out)))
	y := clamp(int(math.Round(rect.Y)), boardTop, max(boardTop, height-footerHeight-lipgloss.Height(out)))
	return out, x, y, true
}

// renderDetails renders the selected row as markdown in a pane on the right.
func (m Model) renderDetails(width, height int) (string, int, bool) {
	row, ok := m.selectedRowView()
	if !ok {
		return "", 0, false
	}
	w := min(56, max(30, width/2))
	h := max(3, height-boardTop-footerHeight)
	body := m.markdown.renderRow(row.Data, w-4)
	lines := strings.Split(fitLines(body, h-2), "\n")
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor)
	return boxed(style, lines, w, h), max(0, width-w), true
}

func (m Model) renderFooter(width int) string {
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	status := statusStyle.Render(truncate(m.status, width))
	if m.mode == modeAddRow {
		return status + "\n" + m.input.View()
	}
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, width-1))
	return status + "\n" + lipgloss.NewStyle().Foreground(mutedColor).Render(helpBubble.View(m.keys))
}

func (m Model) renderHelpOverlay(width int) string {
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(max(0, width-8))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Render(helpBubble.View(m.keys))
}

// placeholder marks the slot of the entity being dragged.
func placeholder(w, h int) string {
	style := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(dimColor)
	return boxed(style, nil, w, h)
}

// boxed renders lines in a bordered box of exactly w x h cells. Lines must
// already fit the inner width.
func boxed(style lipgloss.Style, lines []string, w, h int) string {
	innerW, innerH := max(0, w-2), max(0, h-2)
	out := make([]string, innerH)
	for i := range out {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		out[i] = padLine(line, innerW)
	}
	return style.Render(strings.Join(out, "\n"))
}

// padLine pads s with spaces to w display cells.
func padLine(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// truncate truncates s to max runes.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

// summarizeLabels summarizes labels.
func summarizeLabels(labels []string, maxLabels int) string {
	if len(labels) == 0 {
		return ""
	}
	if maxLabels <= 0 {
		maxLabels = 1
	}
	visible := labels
	extra := 0
	if len(labels) > maxLabels {
		visible = labels[:maxLabels]
		extra = len(labels) - maxLabels
	}
	joined := "#" + strings.Join(visible, ",#")
	if extra > 0 {
		joined += fmt.Sprintf("+%d", extra)
	}
	return joined
}
