package tui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/open-teleop/rcdrive/domain/input"
	"github.com/open-teleop/rcdrive/domain/teleop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	mu       sync.Mutex
	dirs     []teleop.Direction
	limits   []int
	released int
}

func (r *recordingTarget) SetDirection(_ teleop.Axis, dir teleop.Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, dir)
	return nil
}

func (r *recordingTarget) SetLimitPercent(_ teleop.Axis, p int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits = append(r.limits, p)
	return nil
}

func (r *recordingTarget) ReleaseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released++
	return nil
}

func newModel() (Model, *recordingTarget, *EventFeed) {
	rt := &recordingTarget{}
	h := input.NewHandler(input.DefaultKeymap(), rt, nil, 50, 50)
	feed := NewEventFeed(4)
	return New(h, input.NewHoldTracker(h, 250*time.Millisecond), feed, "http://car.local"), rt, feed
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDriveKeyPressThenTimedRelease(t *testing.T) {
	m, rt, _ := newModel()

	next, cmd := m.Update(runes("w"))
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.Equal(t, []teleop.Direction{teleop.Forward}, rt.dirs)

	// a repeat supersedes the first release
	_, _ = m.Update(runes("w"))
	m.Update(releaseMsg{key: "w", gen: 1})
	assert.Len(t, rt.dirs, 2)

	m.Update(releaseMsg{key: "w", gen: 2})
	assert.Equal(t, []teleop.Direction{teleop.Forward, teleop.Forward, teleop.Neutral}, rt.dirs)
}

func TestUnboundKeyIsIgnored(t *testing.T) {
	m, rt, _ := newModel()

	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd)
	assert.Empty(t, rt.dirs)
}

func TestLimitKeys(t *testing.T) {
	m, rt, _ := newModel()

	m.Update(runes("+"))
	m.Update(runes("+"))
	m.Update(runes("["))
	assert.Equal(t, []int{55, 60, 45}, rt.limits)
	assert.Equal(t, 60, m.handler.Limit(teleop.Throttle))
}

func TestStopAndQuitRelease(t *testing.T) {
	m, rt, _ := newModel()

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, 1, rt.released)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 2, rt.released)
}

func TestEventFeedUpdatesStatus(t *testing.T) {
	m, _, feed := newModel()

	feed.OnEvent(teleop.Event{
		Kind:   teleop.EventCompleted,
		Update: teleop.Update{Seq: 7, Command: teleop.Command{Throttle: 0.5}, Changed: teleop.AxisSet(0).With(teleop.Throttle)},
		Result: teleop.Result{StatusCode: 200},
		Status: teleop.Status{Commanded: teleop.Command{Throttle: 0.5}},
	})
	msg := feed.next()()
	next, cmd := m.Update(msg)
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.Equal(t, 0.5, m.status.Commanded.Throttle)
	assert.False(t, m.lastFailed)
	assert.Contains(t, m.lastOutcome, "#7 t=0.5 -> 200")

	feed.OnEvent(teleop.Event{Kind: teleop.EventCompleted, Update: teleop.Update{Seq: 8}, Err: errors.New("connection refused")})
	next, _ = m.Update(feed.next()())
	m = next.(Model)
	assert.True(t, m.lastFailed)
	assert.Contains(t, m.View(), "connection refused")
}

func TestEventFeedDropsWhenFull(t *testing.T) {
	feed := NewEventFeed(1)
	feed.OnEvent(teleop.Event{Kind: teleop.EventInput})
	feed.OnEvent(teleop.Event{Kind: teleop.EventQueued})

	assert.Equal(t, EventMsg(teleop.Event{Kind: teleop.EventInput}), feed.next()())
}
