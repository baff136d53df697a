// Package vehicle models the two-motor car that receives drive updates.
package vehicle

import (
	"math"
	"sync"
)

const (
	// MaxDuty is the full-scale PWM duty.
	MaxDuty = 1023
	// DefaultMinFreq is the PWM frequency at low speeds, in Hz.
	DefaultMinFreq = 5
	// DefaultMaxFreq is the PWM frequency at full throttle, in Hz.
	DefaultMaxFreq = 100
)

// Mode is the H-bridge input pattern of a motor.
type Mode int

const (
	ModeStop    Mode = 0
	ModeForward Mode = 1
	ModeReverse Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeForward:
		return "forward"
	case ModeReverse:
		return "reverse"
	}
	return "stop"
}

// Motor is one PWM-driven motor.
type Motor struct {
	Mode Mode `json:"mode"`
	Duty int  `json:"duty"`
	Freq int  `json:"freq"`
}

// Throttle reads the motor back as a value in [-1,1].
func (m Motor) Throttle() float64 {
	speed := math.Round(float64(m.Duty)/1024*100) / 100
	if m.Mode == ModeReverse {
		return -speed
	}
	return speed
}

// State is what the car reports after each update.
type State struct {
	T     float64 `json:"t"`
	S     float64 `json:"s"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Car mixes throttle and steering onto a left and a right motor.
type Car struct {
	MinFreq int
	MaxFreq int

	mu          sync.Mutex
	t, s        float64
	left, right Motor
}

// NewCar returns a stopped car with the default PWM range.
func NewCar() *Car {
	return &Car{
		MinFreq: DefaultMinFreq,
		MaxFreq: DefaultMaxFreq,
		left:    Motor{Freq: DefaultMinFreq},
		right:   Motor{Freq: DefaultMinFreq},
	}
}

// Apply updates throttle and/or steering. A nil pointer keeps the previous value.
func (c *Car) Apply(t, s *float64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t != nil {
		c.t = clamp(*t)
	}
	if s != nil {
		c.s = clamp(*s)
	}
	c.left = c.drive(c.t + c.s)
	c.right = c.drive(c.t - c.s)
	return c.state()
}

// Stop zeroes both inputs and both motors.
func (c *Car) Stop() State {
	zero := 0.0
	return c.Apply(&zero, &zero)
}

// State returns the last applied inputs and motor readback.
func (c *Car) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Motors returns the raw left and right motor settings.
func (c *Car) Motors() (left, right Motor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left, c.right
}

func (c *Car) state() State {
	return State{T: c.t, S: c.s, Left: c.left.Throttle(), Right: c.right.Throttle()}
}

func (c *Car) drive(throttle float64) Motor {
	throttle = clamp(throttle)
	speed := math.Abs(throttle)
	mode := ModeForward
	if throttle < 0 {
		mode = ModeReverse
	}
	return Motor{
		Mode: mode,
		Duty: int(math.Min(speed*MaxDuty, MaxDuty)),
		Freq: max(c.MinFreq, int(float64(c.MaxFreq)*speed)),
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
