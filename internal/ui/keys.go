package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	CoarseLeft  key.Binding
	CoarseRight key.Binding
	Zero        key.Binding
	ZeroAll     key.Binding
	Pose        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "prev joint")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "next joint")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/left", "-1°")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/right", "+1°")),
	CoarseLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "-10°")),
	CoarseRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "+10°")),
	Zero:        key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "zero joint")),
	ZeroAll:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "zero all")),
	Pose:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next pose")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Left, k.Right, k.CoarseLeft, k.CoarseRight},
		{k.Zero, k.ZeroAll, k.Pose},
		{k.Help, k.Quit},
	}
}
