package controller

import "shopassist/internal/domain"

// EventType categorizes controller events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Kind identifies which operation a request performs.
type Kind int

const (
	KindSearch Kind = iota
	KindChat
	KindRecommend
	KindBrowse
)

func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindChat:
		return "chat"
	case KindRecommend:
		return "recommend"
	case KindBrowse:
		return "browse"
	default:
		return "unknown"
	}
}

// Mode returns the view whose slot the request commits into.
func (k Kind) Mode() domain.Mode {
	switch k {
	case KindChat:
		return domain.ModeChat
	case KindRecommend:
		return domain.ModeRecommend
	default:
		return domain.ModeSearch
	}
}

// Event is sent to subscribers when a request changes state.
type Event struct {
	Type      EventType
	Kind      Kind
	RequestID uint64
	Err       error // Populated on EventFailed
}

// emit sends without blocking. When the buffer is full the oldest event is
// dropped to make room.
func (c *Controller) emit(ev Event) {
	for {
		select {
		case c.events <- ev:
			return
		default:
		}
		select {
		case <-c.events:
		default:
		}
	}
}
