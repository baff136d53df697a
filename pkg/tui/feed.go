package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/open-teleop/rcdrive/domain/teleop"
)

// EventMsg carries a dispatcher event into the UI.
type EventMsg teleop.Event

// EventFeed is a dispatcher observer that buffers events for the UI.
// When the buffer is full the event is dropped; the next one carries a fresh status.
type EventFeed struct {
	events chan teleop.Event
}

var _ teleop.Observer = (*EventFeed)(nil)

// NewEventFeed creates a feed holding up to size pending events.
func NewEventFeed(size int) *EventFeed {
	if size <= 0 {
		size = 100
	}
	return &EventFeed{events: make(chan teleop.Event, size)}
}

// OnEvent never blocks the dispatcher.
func (f *EventFeed) OnEvent(e teleop.Event) {
	select {
	case f.events <- e:
	default:
	}
}

func (f *EventFeed) next() tea.Cmd {
	return func() tea.Msg {
		return EventMsg(<-f.events)
	}
}
