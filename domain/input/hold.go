package input

import (
	"strings"
	"sync"
	"time"
)

// HoldTracker synthesizes key releases for terminals, which only report
// presses. A held key auto-repeats; once no repeat arrives within the
// release timeout the key counts as released.
type HoldTracker struct {
	handler      *Handler
	releaseAfter time.Duration

	mu   sync.Mutex
	gen  uint64
	held map[string]uint64
}

// NewHoldTracker wraps handler.
func NewHoldTracker(handler *Handler, releaseAfter time.Duration) *HoldTracker {
	return &HoldTracker{
		handler:      handler,
		releaseAfter: releaseAfter,
		held:         make(map[string]uint64),
	}
}

// ReleaseAfter is the timeout the caller should wait before calling Expire.
func (t *HoldTracker) ReleaseAfter() time.Duration {
	return t.releaseAfter
}

// Press records a press or repeat of key and forwards it to the handler.
// The returned generation must be passed to Expire after ReleaseAfter.
func (t *HoldTracker) Press(key string) (gen uint64, handled bool) {
	key = strings.ToLower(key)
	if !t.handler.Handles(key) {
		return 0, false
	}

	t.mu.Lock()
	t.gen++
	gen = t.gen
	t.held[key] = gen
	t.mu.Unlock()

	t.handler.HandleKey(key, true)
	return gen, true
}

// Expire releases key unless it was pressed again after gen.
func (t *HoldTracker) Expire(key string, gen uint64) bool {
	key = strings.ToLower(key)

	t.mu.Lock()
	cur, ok := t.held[key]
	if !ok || cur != gen {
		t.mu.Unlock()
		return false
	}
	delete(t.held, key)
	t.mu.Unlock()

	t.handler.HandleKey(key, false)
	return true
}

// Held lists the keys currently considered down.
func (t *HoldTracker) Held() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	return keys
}

// ReleaseAll forgets every held key and neutralizes both axes.
func (t *HoldTracker) ReleaseAll() {
	t.mu.Lock()
	clear(t.held)
	t.mu.Unlock()
	t.handler.ReleaseAll()
}
