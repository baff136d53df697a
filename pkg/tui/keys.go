package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Drive        key.Binding
	ThrottleUp   key.Binding
	ThrottleDown key.Binding
	SteerUp      key.Binding
	SteerDown    key.Binding
	Stop         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		// display only; drive keys come from the input keymap
		Drive:        key.NewBinding(key.WithKeys("w", "a", "s", "d"), key.WithHelp("wasd", "drive")),
		ThrottleUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "throttle limit")),
		ThrottleDown: key.NewBinding(key.WithKeys("-", "_")),
		SteerUp:      key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "steering limit")),
		SteerDown:    key.NewBinding(key.WithKeys("[")),
		Stop:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "stop")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Drive, k.ThrottleUp, k.SteerUp, k.Stop, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
