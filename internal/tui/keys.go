package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/meza/entwine/internal/i18n"
)

// bind builds a binding whose help line is "<label> <description>". Labels are joined with "/" and
// any label starting with "key." is translated.
func bind(keys []string, description string, labels ...string) key.Binding {
	if len(labels) == 0 {
		return key.NewBinding(key.WithKeys(keys...))
	}
	shown := make([]string, 0, len(labels))
	for _, label := range labels {
		if strings.HasPrefix(label, "key.") {
			label = i18n.T(label)
		}
		shown = append(shown, label)
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(shown, "/"), i18n.T(description)),
	)
}

// Accept installs the highlighted mod in the browser.
func Accept() key.Binding {
	return bind([]string{"enter"}, "key.help.install", "key.enter")
}

// ForceQuit has no help line; it aborts any view.
func ForceQuit() key.Binding {
	return bind([]string{"ctrl+c"}, "")
}

func NextPage() key.Binding {
	return bind([]string{"right", "l", "pgdown", "f", "d"}, "key.help.page_next", "→", "l", "key.pgdown")
}

func PreviousPage() key.Binding {
	return bind([]string{"left", "h", "pgup", "b", "u"}, "key.help.page_previous", "←", "h", "key.pgup")
}

// ListKeyMap is the bubbles list key map with translated help lines.
func ListKeyMap() list.KeyMap {
	return list.KeyMap{
		CursorUp:    bind([]string{"up", "k"}, "key.help.up", "↑", "k"),
		CursorDown:  bind([]string{"down", "j"}, "key.help.down", "↓", "j"),
		PrevPage:    PreviousPage(),
		NextPage:    NextPage(),
		GoToStart:   bind([]string{"home", "g"}, "key.help.go_to_start", "g", "key.home"),
		GoToEnd:     bind([]string{"end", "G"}, "key.help.go_to_end", "G", "key.end"),
		Filter:      bind([]string{"/"}, "key.help.filter", "/"),
		ClearFilter: bind([]string{"esc"}, "key.help.clear_filter", "key.esc"),

		CancelWhileFiltering: bind([]string{"esc"}, "key.help.cancel", "key.esc"),
		AcceptWhileFiltering: bind([]string{"enter", "tab", "shift+tab", "ctrl+k", "up", "ctrl+j", "down"}, "key.help.apply_filter", "key.enter"),

		ShowFullHelp:  bind([]string{"?"}, "key.help.more", "?"),
		CloseFullHelp: bind([]string{"?"}, "key.help.close_help", "?"),

		Quit:      bind([]string{"q", "esc"}, "key.help.quit", "q"),
		ForceQuit: ForceQuit(),
	}
}

// pickerHelpKeys are shown next to the list's own bindings.
func pickerHelpKeys() []key.Binding {
	return []key.Binding{Accept()}
}
