// Package input turns key and slider events into dispatcher calls.
package input

import (
	"fmt"
	"strings"
	"sync"

	"github.com/open-teleop/rcdrive/domain/teleop"
	"github.com/open-teleop/rcdrive/pkg/config"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
)

// Target is the part of the dispatcher input handlers drive.
type Target interface {
	SetDirection(axis teleop.Axis, dir teleop.Direction) error
	SetLimitPercent(axis teleop.Axis, percent int) error
	ReleaseAll() error
}

// Binding is the axis and direction a key activates.
type Binding struct {
	Axis      teleop.Axis
	Direction teleop.Direction
}

// Keymap maps lower-case key names to bindings.
type Keymap map[string]Binding

// KeymapFromConfig converts bootstrap key bindings.
func KeymapFromConfig(bindings []config.KeyBinding) (Keymap, error) {
	keys := make(Keymap, len(bindings))
	for _, b := range bindings {
		axis, err := teleop.ParseAxis(b.Axis)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", b.Key, err)
		}
		dir := teleop.Direction(b.Direction)
		if dir == teleop.Neutral || !dir.Valid() {
			return nil, fmt.Errorf("key %q: invalid direction %d", b.Key, b.Direction)
		}
		keys[strings.ToLower(b.Key)] = Binding{Axis: axis, Direction: dir}
	}
	return keys, nil
}

// DefaultKeymap is WASD.
func DefaultKeymap() Keymap {
	keys, _ := KeymapFromConfig(config.DefaultKeyBindings())
	return keys
}

// Handler applies press/release and limit events to a Target.
// Opposing keys are not arbitrated: the last event wins.
type Handler struct {
	keys   Keymap
	target Target
	logger customlog.Logger

	mu     sync.Mutex
	limits [2]int
}

// NewHandler creates a handler with the given startup limits in percent.
func NewHandler(keys Keymap, target Target, logger customlog.Logger, throttlePercent, steeringPercent int) *Handler {
	if logger == nil {
		logger = customlog.NewNop()
	}
	return &Handler{
		keys:   keys,
		target: target,
		logger: logger,
		limits: [2]int{clampPercent(throttlePercent), clampPercent(steeringPercent)},
	}
}

// Handles reports whether key is bound.
func (h *Handler) Handles(key string) bool {
	_, ok := h.keys[strings.ToLower(key)]
	return ok
}

// HandleKey sets the bound axis to its direction on press and to Neutral on
// release. Unbound keys are ignored and reported as not handled.
func (h *Handler) HandleKey(key string, down bool) bool {
	b, ok := h.keys[strings.ToLower(key)]
	if !ok {
		return false
	}
	dir := teleop.Neutral
	if down {
		dir = b.Direction
	}
	if err := h.target.SetDirection(b.Axis, dir); err != nil {
		h.logger.Warnf("Dropping %s key %q: %v", b.Axis, key, err)
	}
	return true
}

// ReleaseAll neutralizes both axes.
func (h *Handler) ReleaseAll() {
	if err := h.target.ReleaseAll(); err != nil {
		h.logger.Warnf("Dropping release: %v", err)
	}
}

// HandleLimit sets an axis limit from a 0..100 slider and returns the clamped value.
func (h *Handler) HandleLimit(axis teleop.Axis, percent int) (int, error) {
	if !axis.Valid() {
		return 0, fmt.Errorf("invalid axis %d", int(axis))
	}
	percent = clampPercent(percent)
	h.mu.Lock()
	h.limits[axis] = percent
	h.mu.Unlock()

	if err := h.target.SetLimitPercent(axis, percent); err != nil {
		h.logger.Warnf("Dropping %s limit %d%%: %v", axis, percent, err)
	}
	return percent, nil
}

// StepLimit moves an axis limit by delta percent.
func (h *Handler) StepLimit(axis teleop.Axis, delta int) (int, error) {
	return h.HandleLimit(axis, h.Limit(axis)+delta)
}

// Limit returns the current limit of an axis in percent.
func (h *Handler) Limit(axis teleop.Axis) int {
	if !axis.Valid() {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.limits[axis]
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
