package teleop

import (
	"net/url"
	"strings"
	"time"
)

// AxisSet is a bit set of axes.
type AxisSet uint8

// Has reports whether a is in the set.
func (s AxisSet) Has(a Axis) bool {
	return s&(1<<uint(a)) != 0
}

// With returns the set with a added.
func (s AxisSet) With(a Axis) AxisSet {
	return s | 1<<uint(a)
}

// Update is one queued transmission.
type Update struct {
	Seq       uint64    `json:"seq"`
	SessionID string    `json:"session_id"`
	Command   Command   `json:"command"`
	Changed   AxisSet   `json:"changed"`
	Endpoint  string    `json:"endpoint,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

// diff builds the changed-axis set between prev and next.
func diff(prev, next Command) AxisSet {
	var changed AxisSet
	if next.Throttle != prev.Throttle {
		changed = changed.With(Throttle)
	}
	if next.Steering != prev.Steering {
		changed = changed.With(Steering)
	}
	return changed
}

// Params holds only the axes that changed since the previous update.
func (u Update) Params() url.Values {
	params := url.Values{}
	for _, a := range []Axis{Steering, Throttle} {
		if u.Changed.Has(a) {
			params.Set(a.Key(), FormatValue(u.Command.Get(a)))
		}
	}
	return params
}

// URL is the full request target, <endpoint>/?<params>.
func (u Update) URL() string {
	return strings.TrimRight(u.Endpoint, "/") + "/?" + u.Params().Encode()
}
