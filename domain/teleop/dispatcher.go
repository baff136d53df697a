package teleop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	customlog "github.com/open-teleop/rcdrive/pkg/log"
)

var (
	// ErrStopped is returned once the dispatcher loop has exited.
	ErrStopped = errors.New("dispatcher stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

const (
	defaultInboxSize = 64
	// DefaultLimit applies to both axes unless WithLimits says otherwise.
	DefaultLimit = 0.5
)

// Result is what the vehicle answered to one update.
type Result struct {
	StatusCode int            `json:"status_code"`
	Body       any            `json:"body,omitempty"`
	Latency    time.Duration  `json:"latency"`
}

// Sender transmits one update to the vehicle and blocks until it completes.
type Sender interface {
	Send(ctx context.Context, u Update) (Result, error)
}

// Resolver returns the base URL of the vehicle.
type Resolver interface {
	Endpoint(ctx context.Context) (string, error)
}

// EventKind classifies dispatcher events delivered to observers.
type EventKind int

const (
	// EventInput: axis state changed.
	EventInput EventKind = iota
	// EventUnchanged: evaluation found nothing new to send.
	EventUnchanged
	// EventCoalesced: a change arrived while a transmission was outstanding.
	EventCoalesced
	// EventQueued: a transmission was started.
	EventQueued
	// EventCompleted: a transmission finished, successfully or not.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventInput:
		return "input"
	case EventUnchanged:
		return "unchanged"
	case EventCoalesced:
		return "coalesced"
	case EventQueued:
		return "queued"
	case EventCompleted:
		return "completed"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered synchronously on the dispatcher goroutine. Observers must not block.
type Event struct {
	Kind   EventKind
	Update Update
	Result Result
	Err    error
	Status Status
}

// Observer receives dispatcher events.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Status is a snapshot of the dispatcher state.
type Status struct {
	SessionID string    `json:"session_id"`
	Throttle  AxisState `json:"throttle"`
	Steering  AxisState `json:"steering"`
	Commanded Command   `json:"commanded"`
	LastSent  Command   `json:"last_sent"`
	InFlight  bool      `json:"in_flight"`
	Seq       uint64    `json:"seq"`
	LastError string    `json:"last_error,omitempty"`
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, o) }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(d *Dispatcher) { d.sessionID = id }
}

// WithLimits sets the startup limits.
func WithLimits(throttle, steering float64) Option {
	return func(d *Dispatcher) {
		d.axes[Throttle].Limit = ClampLimit(throttle)
		d.axes[Steering].Limit = ClampLimit(steering)
	}
}

// WithInboxSize sets the input queue capacity.
func WithInboxSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inbox = make(chan any, n)
		}
	}
}

// loop messages
type (
	setDirectionMsg struct {
		axis Axis
		dir  Direction
	}
	setLimitMsg struct {
		axis  Axis
		limit float64
	}
	releaseAllMsg struct{}
	completedMsg  struct {
		update Update
		result Result
		err    error
	}
	statusMsg struct {
		reply chan Status
	}
)

// Dispatcher owns the commanded state and serializes transmissions to the vehicle.
// All state is confined to the Run goroutine; the exported methods post messages to it.
type Dispatcher struct {
	sender    Sender
	resolver  Resolver
	logger    customlog.Logger
	observers []Observer
	sessionID string

	inbox   chan any
	done    chan struct{}
	running atomic.Bool

	// owned by the Run goroutine
	axes      [2]AxisState
	prevSent  Command
	inFlight  bool
	seq       uint64
	lastError string
}

// NewDispatcher creates a dispatcher. Call Run to start it.
func NewDispatcher(sender Sender, resolver Resolver, logger customlog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:    sender,
		resolver:  resolver,
		sessionID: uuid.NewString(),
		inbox:     make(chan any, defaultInboxSize),
		done:      make(chan struct{}),
		axes:      [2]AxisState{{Limit: DefaultLimit}, {Limit: DefaultLimit}},
	}
	for _, opt := range opts {
		opt(d)
	}
	if logger == nil {
		logger = customlog.NewNop()
	}
	d.logger = logger.WithField("session", d.sessionID)
	return d
}

// SessionID identifies this dispatcher in logs and telemetry.
func (d *Dispatcher) SessionID() string {
	return d.sessionID
}

// Run processes input and completion messages until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(d.done)

	d.logger.Infof("Dispatcher started (throttle limit %.2f, steering limit %.2f)",
		d.axes[Throttle].Limit, d.axes[Steering].Limit)
	for {
		select {
		case <-ctx.Done():
			d.logger.Infof("Dispatcher stopping: %v", ctx.Err())
			return ctx.Err()
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		}
	}
}

// SetDirection changes the direction of one axis and evaluates whether to transmit.
func (d *Dispatcher) SetDirection(axis Axis, dir Direction) error {
	if !axis.Valid() {
		return fmt.Errorf("invalid axis %d", int(axis))
	}
	if !dir.Valid() {
		return fmt.Errorf("invalid direction %d", dir)
	}
	return d.post(setDirectionMsg{axis: axis, dir: dir})
}

// ReleaseAll sets both directions to Neutral and evaluates.
func (d *Dispatcher) ReleaseAll() error {
	return d.post(releaseAllMsg{})
}

// SetLimit changes the limit of one axis. It does not transmit; the new limit
// takes effect on the next direction change.
func (d *Dispatcher) SetLimit(axis Axis, limit float64) error {
	if !axis.Valid() {
		return fmt.Errorf("invalid axis %d", int(axis))
	}
	return d.post(setLimitMsg{axis: axis, limit: ClampLimit(limit)})
}

// SetLimitPercent is SetLimit for an integer percentage in 0..100.
func (d *Dispatcher) SetLimitPercent(axis Axis, percent int) error {
	return d.SetLimit(axis, float64(percent)/100)
}

// Status returns a snapshot taken on the dispatcher goroutine.
func (d *Dispatcher) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := d.post(statusMsg{reply: reply}); err != nil {
		return Status{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-d.done:
		return Status{}, ErrStopped
	}
}

func (d *Dispatcher) post(msg any) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}
	select {
	case d.inbox <- msg:
		return nil
	case <-d.done:
		return ErrStopped
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case setDirectionMsg:
		d.axes[m.axis].Direction = m.dir
		d.logger.Debugf("%s direction -> %d", m.axis, m.dir)
		d.emit(Event{Kind: EventInput})
		d.evaluate(ctx)
	case releaseAllMsg:
		d.axes[Throttle].Direction = Neutral
		d.axes[Steering].Direction = Neutral
		d.emit(Event{Kind: EventInput})
		d.evaluate(ctx)
	case setLimitMsg:
		d.axes[m.axis].Limit = m.limit
		d.logger.Debugf("%s limit -> %.2f", m.axis, m.limit)
		d.emit(Event{Kind: EventInput})
	case completedMsg:
		d.inFlight = false
		if m.err != nil {
			d.lastError = m.err.Error()
		} else {
			d.lastError = ""
		}
		d.emit(Event{Kind: EventCompleted, Update: m.update, Result: m.result, Err: m.err})
		// Anything dropped while in flight is picked up here.
		d.evaluate(ctx)
	case statusMsg:
		m.reply <- d.status()
	default:
		d.logger.Warnf("Dispatcher ignoring unknown message %T", msg)
	}
}

func (d *Dispatcher) commanded() Command {
	return Command{
		Throttle: d.axes[Throttle].Value(),
		Steering: d.axes[Steering].Value(),
	}
}

func (d *Dispatcher) evaluate(ctx context.Context) {
	next := d.commanded()

	if next == d.prevSent {
		d.logger.Debugf("No change (t=%s s=%s)", FormatValue(next.Throttle), FormatValue(next.Steering))
		d.emit(Event{Kind: EventUnchanged})
		return
	}
	if d.inFlight {
		d.logger.Debugf("Request in progress, deferring t=%s s=%s", FormatValue(next.Throttle), FormatValue(next.Steering))
		d.emit(Event{Kind: EventCoalesced})
		return
	}

	d.inFlight = true
	d.seq++
	u := Update{
		Seq:       d.seq,
		SessionID: d.sessionID,
		Command:   next,
		Changed:   diff(d.prevSent, next),
		QueuedAt:  time.Now(),
	}
	// Compare future evaluations against what is about to be sent.
	d.prevSent = next

	if params, err := json.Marshal(flatten(u)); err == nil {
		d.logger.Infof("Sending update %d %s", u.Seq, params)
	}
	d.emit(Event{Kind: EventQueued, Update: u})

	go d.transmit(ctx, u)
}

// transmit runs off the loop and always reports completion back to it.
func (d *Dispatcher) transmit(ctx context.Context, u Update) {
	var (
		result Result
		err    error
	)
	u.Endpoint, err = d.resolver.Endpoint(ctx)
	if err != nil {
		err = fmt.Errorf("resolve endpoint: %w", err)
	} else {
		d.logger.Debugf("Current URL: %s", u.Endpoint)
		result, err = d.sender.Send(ctx, u)
	}

	if err != nil {
		d.logger.Errorf("There has been a problem sending update %d: %v", u.Seq, err)
	} else {
		d.logger.Debugf("Vehicle replied to update %d in %v: %v", u.Seq, result.Latency, result.Body)
	}

	select {
	case d.inbox <- completedMsg{update: u, result: result, err: err}:
	case <-d.done:
	}
}

func (d *Dispatcher) status() Status {
	return Status{
		SessionID: d.sessionID,
		Throttle:  d.axes[Throttle],
		Steering:  d.axes[Steering],
		Commanded: d.commanded(),
		LastSent:  d.prevSent,
		InFlight:  d.inFlight,
		Seq:       d.seq,
		LastError: d.lastError,
	}
}

func (d *Dispatcher) emit(e Event) {
	if len(d.observers) == 0 {
		return
	}
	e.Status = d.status()
	for _, o := range d.observers {
		o.OnEvent(e)
	}
}

func flatten(u Update) map[string]string {
	out := make(map[string]string, 2)
	for k, v := range u.Params() {
		out[k] = v[0]
	}
	return out
}
