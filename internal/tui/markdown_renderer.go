package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/evanschultz/dragboard/internal/domain"
)

const minMarkdownWrap = 24

// markdownRenderer renders row details and rebuilds the glamour renderer only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// renderRow renders a row payload wrapped to width.
func (r *markdownRenderer) renderRow(data domain.RowData, width int) string {
	return r.render(data.Markdown(), width)
}

// render converts markdown input into ANSI-styled terminal text.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(minMarkdownWrap, width)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}
	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(rendered, "\n")
}
