package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	SwitchPane key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	NewAgent   key.Binding
	EditAgent  key.Binding
	Ingest     key.Binding
	Settings   key.Binding
	Reload     key.Binding
	Browse     key.Binding
	Choose     key.Binding
	Parent     key.Binding
	Ancestor   key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		SwitchPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "agents/chat")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left")),
		Right:      key.NewBinding(key.WithKeys("right")),
		NextField:  key.NewBinding(key.WithKeys("tab", "down")),
		PrevField:  key.NewBinding(key.WithKeys("shift+tab", "up")),
		NewAgent:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new agent")),
		EditAgent:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit agent")),
		Ingest:     key.NewBinding(key.WithKeys("i", "ctrl+g"), key.WithHelp("i", "ingest")),
		Settings:   key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "settings")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Browse:     key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "browse")),
		Choose:     key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "select folder")),
		Parent:     key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("⌫", "up one level")),
		Ancestor:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "jump to path entry")),
		PageUp:     key.NewBinding(key.WithKeys("pgup")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown")),
	}
}
