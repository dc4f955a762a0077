package tui

import "github.com/charmbracelet/bubbles/key"

var keys = struct {
	Quit      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Search    key.Binding
	Chat      key.Binding
	Recommend key.Binding
	Submit    key.Binding
	Similar   key.Binding
	Browse    key.Binding
	Abort     key.Binding
	Expand    key.Binding
	Up        key.Binding
	Down      key.Binding
}{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d")),
	NextTab:   key.NewBinding(key.WithKeys("tab")),
	PrevTab:   key.NewBinding(key.WithKeys("shift+tab")),
	Search:    key.NewBinding(key.WithKeys("f1")),
	Chat:      key.NewBinding(key.WithKeys("f2")),
	Recommend: key.NewBinding(key.WithKeys("f3")),
	Submit:    key.NewBinding(key.WithKeys("enter")),
	Similar:   key.NewBinding(key.WithKeys("ctrl+r")),
	Browse:    key.NewBinding(key.WithKeys("ctrl+b")),
	Abort:     key.NewBinding(key.WithKeys("esc")),
	Expand:    key.NewBinding(key.WithKeys("ctrl+e")),
	Up:        key.NewBinding(key.WithKeys("up")),
	Down:      key.NewBinding(key.WithKeys("down")),
}
