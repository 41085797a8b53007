package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides default key bindings. Blank fields keep the default.
type KeyConfig struct {
	AddRow      string
	DeleteRow   string
	Details     string
	Yank        string
	MoveLeft    string
	MoveRight   string
	ColumnLeft  string
	ColumnRight string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	reload      key.Binding
	toggleHelp  key.Binding
	focusLeft   key.Binding
	focusRight  key.Binding
	focusUp     key.Binding
	focusDown   key.Binding
	addRow      key.Binding
	deleteRow   key.Binding
	details     key.Binding
	yank        key.Binding
	rowUp       key.Binding
	rowDown     key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	columnLeft  key.Binding
	columnRight key.Binding
	scrollLeft  key.Binding
	scrollRight key.Binding
	cancel      key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		focusLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		focusRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		focusUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		focusDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		addRow:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new row")),
		deleteRow:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete row")),
		details:     key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "details")),
		yank:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy row")),
		rowUp:       key.NewBinding(key.WithKeys("K", "shift+k"), key.WithHelp("K", "move row up")),
		rowDown:     key.NewBinding(key.WithKeys("J", "shift+j"), key.WithHelp("J", "move row down")),
		moveLeft:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move row left")),
		moveRight:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move row right")),
		columnLeft:  key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "move column left")),
		columnRight: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move column right")),
		scrollLeft:  key.NewBinding(key.WithKeys("H", "shift+h"), key.WithHelp("H", "scroll left")),
		scrollRight: key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "scroll right")),
		cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addRow, cfg.AddRow, "n", "new row")
	configureBinding(&k.deleteRow, cfg.DeleteRow, "d", "delete row")
	configureBinding(&k.details, cfg.Details, "i", "details")
	configureBinding(&k.yank, cfg.Yank, "y", "copy row")
	configureBinding(&k.moveLeft, cfg.MoveLeft, "[", "move row left")
	configureBinding(&k.moveRight, cfg.MoveRight, "]", "move row right")
	configureBinding(&k.columnLeft, cfg.ColumnLeft, "<", "move column left")
	configureBinding(&k.columnRight, cfg.ColumnRight, ">", "move column right")
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addRow, k.details, k.moveLeft, k.moveRight, k.yank, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.focusLeft, k.focusRight, k.focusUp, k.focusDown, k.scrollLeft, k.scrollRight},
		{k.addRow, k.deleteRow, k.details, k.yank, k.reload},
		{k.rowUp, k.rowDown, k.moveLeft, k.moveRight, k.columnLeft, k.columnRight, k.cancel},
		{k.toggleHelp, k.quit},
	}
}

// configureBinding replaces keys and help text when raw is set.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}
