package teleop

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu        sync.Mutex
	calls     []Update
	active    int
	maxActive int
	gate      chan struct{}
	delay     time.Duration
	err       error
}

func newGatedSender() *fakeSender {
	return &fakeSender{gate: make(chan struct{}, 16)}
}

func (f *fakeSender) Send(ctx context.Context, u Update) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	if f.err != nil {
		return Result{StatusCode: 500}, f.err
	}
	return Result{StatusCode: 200, Body: map[string]any{"ok": true}}, nil
}

func (f *fakeSender) unblock() {
	f.gate <- struct{}{}
}

func (f *fakeSender) Calls() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Update(nil), f.calls...)
}

func (f *fakeSender) MaxActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

type staticResolver struct {
	url string
	err error
}

func (r staticResolver) Endpoint(context.Context) (string, error) {
	return r.url, r.err
}

func startDispatcher(t *testing.T, sender Sender, resolver Resolver, opts ...Option) *Dispatcher {
	t.Helper()
	d := NewDispatcher(sender, resolver, nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d
}

func status(t *testing.T, d *Dispatcher) Status {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := d.Status(ctx)
	require.NoError(t, err)
	return s
}

// waitIdle waits until n updates were queued and none is outstanding.
func waitIdle(t *testing.T, d *Dispatcher, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := status(t, d)
		return !s.InFlight && s.Seq == n
	}, 2*time.Second, 5*time.Millisecond)
}

var endpoint = staticResolver{url: "http://car.local"}

func TestPressAndReleaseForward(t *testing.T) {
	sender := newGatedSender()
	d := startDispatcher(t, sender, endpoint, WithLimits(0.5, 0.5))

	require.NoError(t, d.SetDirection(Throttle, Forward))
	require.Eventually(t, func() bool { return len(sender.Calls()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, d.SetDirection(Throttle, Neutral))
	// release is held back until the first request completes
	assert.True(t, status(t, d).InFlight)
	assert.Len(t, sender.Calls(), 1)

	sender.unblock()
	require.Eventually(t, func() bool { return len(sender.Calls()) == 2 }, time.Second, time.Millisecond)
	sender.unblock()
	waitIdle(t, d, 2)

	calls := sender.Calls()
	assert.Equal(t, "http://car.local/?t=0.5", calls[0].URL())
	assert.Equal(t, "http://car.local/?t=0", calls[1].URL())
}

func TestSteerLeft(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint, WithLimits(0.5, 0.30))

	require.NoError(t, d.SetDirection(Steering, Reverse))
	waitIdle(t, d, 1)

	calls := sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "-0.3", calls[0].Params().Get("s"))
	assert.False(t, calls[0].Params().Has("t"))
	assert.Equal(t, "http://car.local/?s=-0.3", calls[0].URL())
}

func TestIdenticalStateSendsOnce(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint)

	require.NoError(t, d.SetDirection(Throttle, Forward))
	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)
	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)

	assert.Len(t, sender.Calls(), 1)
}

func TestChangesWhileInFlightCoalesceToLatest(t *testing.T) {
	sender := newGatedSender()
	d := startDispatcher(t, sender, endpoint, WithLimits(1, 0.5))

	require.NoError(t, d.SetDirection(Throttle, Forward))
	require.NoError(t, d.SetDirection(Steering, Forward))
	require.NoError(t, d.SetDirection(Steering, Reverse))
	// the status round trip guarantees all three were handled while in flight
	s := status(t, d)
	require.True(t, s.InFlight)
	assert.Equal(t, uint64(1), s.Seq)

	sender.unblock()
	require.Eventually(t, func() bool { return len(sender.Calls()) == 2 }, time.Second, time.Millisecond)
	sender.unblock()
	waitIdle(t, d, 2)
	assert.Never(t, func() bool { return len(sender.Calls()) > 2 }, 50*time.Millisecond, 5*time.Millisecond)

	calls := sender.Calls()
	assert.Equal(t, Command{Throttle: 1, Steering: 0}, calls[0].Command)
	assert.Equal(t, Command{Throttle: 1, Steering: -0.5}, calls[1].Command)
	assert.Equal(t, "s=-0.5", calls[1].Params().Encode())
}

func TestRevertWhileInFlightSendsNothingMore(t *testing.T) {
	sender := newGatedSender()
	d := startDispatcher(t, sender, endpoint)

	require.NoError(t, d.SetDirection(Throttle, Forward))
	require.NoError(t, d.SetDirection(Throttle, Neutral))
	require.NoError(t, d.SetDirection(Throttle, Forward))
	status(t, d)

	sender.unblock()
	waitIdle(t, d, 1)
	assert.Len(t, sender.Calls(), 1)
}

func TestNeverTwoRequestsOutstanding(t *testing.T) {
	sender := &fakeSender{delay: time.Millisecond}
	d := startDispatcher(t, sender, endpoint, WithLimits(0.7, 0.4))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 300; i++ {
		axis := Axis(rng.Intn(2))
		switch rng.Intn(4) {
		case 0:
			require.NoError(t, d.SetLimitPercent(axis, rng.Intn(101)))
		default:
			require.NoError(t, d.SetDirection(axis, Direction(rng.Intn(3)-1)))
		}
		if i%25 == 0 {
			time.Sleep(2 * time.Millisecond)
		}
	}
	require.NoError(t, d.ReleaseAll())

	require.Eventually(t, func() bool {
		s := status(t, d)
		return !s.InFlight && s.LastSent == (Command{})
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sender.MaxActive())
}

func TestLimitChangeAloneDoesNotSend(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint, WithLimits(0.5, 0.5))

	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)

	require.NoError(t, d.SetLimitPercent(Throttle, 80))
	s := status(t, d)
	assert.Equal(t, 0.8, s.Throttle.Limit)
	assert.Equal(t, 0.8, s.Commanded.Throttle)
	assert.Equal(t, 0.5, s.LastSent.Throttle)
	assert.Len(t, sender.Calls(), 1)

	// the next direction event applies it
	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 2)
	assert.Equal(t, "t=0.8", sender.Calls()[1].Params().Encode())
}

func TestLimitInsideSameBucketIsNotAChange(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint, WithLimits(0.5, 0.5))

	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)
	require.NoError(t, d.SetLimitPercent(Throttle, 51))
	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)

	assert.Len(t, sender.Calls(), 1)
}

func TestFailureClearsInFlight(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	d := startDispatcher(t, sender, endpoint)

	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)
	s := status(t, d)
	assert.Contains(t, s.LastError, "connection refused")
	// previous sent was updated before the call, so no retry of the same value
	assert.Equal(t, 0.5, s.LastSent.Throttle)

	require.NoError(t, d.SetDirection(Throttle, Neutral))
	waitIdle(t, d, 2)
	assert.Len(t, sender.Calls(), 2)
}

func TestResolverFailureSkipsSender(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, staticResolver{err: errors.New("no url saved")})

	require.NoError(t, d.SetDirection(Steering, Forward))
	waitIdle(t, d, 1)

	assert.Empty(t, sender.Calls())
	assert.Contains(t, status(t, d).LastError, "resolve endpoint")
}

func TestObserverSeesQueuedAndCompleted(t *testing.T) {
	var (
		mu    sync.Mutex
		kinds []EventKind
	)
	obs := ObserverFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, e.Kind)
	})
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint, WithObserver(obs))

	require.NoError(t, d.SetDirection(Throttle, Forward))
	waitIdle(t, d, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventInput, EventQueued, EventCompleted, EventUnchanged}, kinds)
}

func TestStoppedDispatcher(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, endpoint, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, d.Run(context.Background()), ErrAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.ErrorIs(t, d.SetDirection(Throttle, Forward), ErrStopped)
	_, err := d.Status(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestInvalidDirection(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, endpoint, nil)
	assert.Error(t, d.SetDirection(Throttle, Direction(2)))
}

func TestInvalidAxisIsRejected(t *testing.T) {
	sender := &fakeSender{}
	d := startDispatcher(t, sender, endpoint)

	assert.EqualError(t, d.SetDirection(Axis(2), Forward), "invalid axis 2")
	assert.EqualError(t, d.SetDirection(Axis(-1), Forward), "invalid axis -1")
	assert.EqualError(t, d.SetLimit(Axis(2), 0.5), "invalid axis 2")
	assert.EqualError(t, d.SetLimitPercent(Axis(7), 50), "invalid axis 7")

	// the loop is still alive and nothing was sent
	s := status(t, d)
	assert.Equal(t, uint64(0), s.Seq)
	assert.Empty(t, sender.Calls())
}
