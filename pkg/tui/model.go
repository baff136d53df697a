// Package tui is a terminal driver for the dispatcher.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/open-teleop/rcdrive/domain/input"
	"github.com/open-teleop/rcdrive/domain/teleop"
)

// LimitStep is how far one limit key press moves a limit, in percent.
const LimitStep = 5

type releaseMsg struct {
	key string
	gen uint64
}

// Model is the BubbleTea model for the terminal driver.
type Model struct {
	handler *input.Handler
	hold    *input.HoldTracker
	feed    *EventFeed
	target  string

	width int

	status      teleop.Status
	lastOutcome string
	lastFailed  bool
	lastAt      time.Time

	keys     keyMap
	help     help.Model
	throttle progress.Model
	steering progress.Model
	theme    Theme
}

// New creates the driver model. target is shown in the header.
func New(handler *input.Handler, hold *input.HoldTracker, feed *EventFeed, target string) Model {
	return Model{
		handler:  handler,
		hold:     hold,
		feed:     feed,
		target:   target,
		keys:     defaultKeyMap(),
		help:     help.New(),
		throttle: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		steering: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		theme:    NewDefaultTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.feed.next(), tea.EnterAltScreen)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case releaseMsg:
		m.hold.Expire(msg.key, msg.gen)
		return m, nil

	case EventMsg:
		m.applyEvent(teleop.Event(msg))
		return m, m.feed.next()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.hold.ReleaseAll()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Stop):
		m.hold.ReleaseAll()
		return m, nil
	case key.Matches(msg, m.keys.ThrottleUp):
		m.handler.StepLimit(teleop.Throttle, LimitStep)
		return m, nil
	case key.Matches(msg, m.keys.ThrottleDown):
		m.handler.StepLimit(teleop.Throttle, -LimitStep)
		return m, nil
	case key.Matches(msg, m.keys.SteerUp):
		m.handler.StepLimit(teleop.Steering, LimitStep)
		return m, nil
	case key.Matches(msg, m.keys.SteerDown):
		m.handler.StepLimit(teleop.Steering, -LimitStep)
		return m, nil
	}

	k := msg.String()
	gen, ok := m.hold.Press(k)
	if !ok {
		return m, nil
	}
	return m, tea.Tick(m.hold.ReleaseAfter(), func(time.Time) tea.Msg {
		return releaseMsg{key: k, gen: gen}
	})
}

func (m *Model) applyEvent(e teleop.Event) {
	m.status = e.Status
	if e.Kind != teleop.EventCompleted {
		return
	}
	m.lastAt = time.Now()
	if e.Err != nil {
		m.lastFailed = true
		m.lastOutcome = fmt.Sprintf("#%d failed: %v", e.Update.Seq, e.Err)
		return
	}
	m.lastFailed = false
	m.lastOutcome = fmt.Sprintf("#%d %s -> %d in %v", e.Update.Seq, e.Update.Params().Encode(),
		e.Result.StatusCode, e.Result.Latency.Round(time.Millisecond))
}

func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.Title.Render("rcdrive"))
	b.WriteString(" ")
	b.WriteString(t.Dim.Render(m.target))
	b.WriteString("\n\n")

	thrPct := m.handler.Limit(teleop.Throttle)
	steerPct := m.handler.Limit(teleop.Steering)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		t.Label.Render("throttle"),
		m.throttle.ViewAs(float64(thrPct)/100),
		t.Value.Render(fmt.Sprintf("  %s", teleop.FormatValue(m.status.Commanded.Throttle))),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		t.Label.Render("steering"),
		m.steering.ViewAs(float64(steerPct)/100),
		t.Value.Render(fmt.Sprintf("  %s", teleop.FormatValue(m.status.Commanded.Steering))),
	))
	b.WriteString("\n\n")

	sent := fmt.Sprintf("t=%s s=%s", teleop.FormatValue(m.status.LastSent.Throttle), teleop.FormatValue(m.status.LastSent.Steering))
	b.WriteString(t.Label.Render("sent"))
	b.WriteString(t.Value.Render(sent))
	b.WriteString("  ")
	if m.status.InFlight {
		b.WriteString(t.InFlight.Render("● in flight"))
	} else {
		b.WriteString(t.Idle.Render("○ idle"))
	}
	b.WriteString("\n")

	b.WriteString(t.Label.Render("last"))
	switch {
	case m.lastOutcome == "":
		b.WriteString(t.Dim.Render("nothing sent yet"))
	case m.lastFailed:
		b.WriteString(t.Failed.Render(m.lastOutcome))
	default:
		b.WriteString(t.OK.Render(m.lastOutcome))
	}
	b.WriteString("\n")

	if held := m.hold.Held(); len(held) > 0 {
		b.WriteString(t.Label.Render("held"))
		b.WriteString(t.Highlight.Render(strings.Join(held, " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return t.Border.Render(b.String())
}
