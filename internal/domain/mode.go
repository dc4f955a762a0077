package domain

import "fmt"

// Mode is the top-level view the user is in.
type Mode int

const (
	ModeSearch Mode = iota
	ModeChat
	ModeRecommend
)

// Modes lists every valid mode in tab order.
var Modes = []Mode{ModeSearch, ModeChat, ModeRecommend}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeSearch && m <= ModeRecommend
}

func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeChat:
		return "chat"
	case ModeRecommend:
		return "recommend"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(Modes))
}

// Prev returns the mode before m, wrapping around.
func (m Mode) Prev() Mode {
	return Mode((int(m) - 1 + len(Modes)) % len(Modes))
}
