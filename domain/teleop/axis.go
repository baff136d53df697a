package teleop

import (
	"fmt"
	"math"
	"strconv"
)

// QuantizeStep is the resolution of every commanded value.
const QuantizeStep = 0.05

// Axis is one of the two independent control dimensions.
type Axis int

const (
	Throttle Axis = iota
	Steering
)

// Key returns the query parameter name the vehicle expects for the axis.
func (a Axis) Key() string {
	switch a {
	case Throttle:
		return "t"
	case Steering:
		return "s"
	}
	return ""
}

// Valid reports whether a is Throttle or Steering.
func (a Axis) Valid() bool {
	return a == Throttle || a == Steering
}

func (a Axis) String() string {
	switch a {
	case Throttle:
		return "throttle"
	case Steering:
		return "steering"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis accepts "throttle"/"steering" or the wire keys "t"/"s".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "throttle", "t":
		return Throttle, nil
	case "steering", "s":
		return Steering, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Direction is the discrete intent on an axis. For steering, Reverse is left.
type Direction int

const (
	Reverse Direction = -1
	Neutral Direction = 0
	Forward Direction = 1
)

// Valid reports whether d is one of -1, 0, 1.
func (d Direction) Valid() bool {
	return d >= Reverse && d <= Forward
}

// AxisState is the direction and limit of one axis.
type AxisState struct {
	Direction Direction `json:"direction"`
	Limit     float64   `json:"limit"`
}

// Value is the quantized commanded value of the axis.
func (s AxisState) Value() float64 {
	return Quantize(float64(s.Direction) * s.Limit)
}

// ClampLimit bounds a limit to [0,1].
func ClampLimit(limit float64) float64 {
	if math.IsNaN(limit) || limit < 0 {
		return 0
	}
	if limit > 1 {
		return 1
	}
	return limit
}

// Command is a throttle/steering pair as sent to the vehicle.
type Command struct {
	Throttle float64 `json:"throttle"`
	Steering float64 `json:"steering"`
}

// Get returns the value of one axis.
func (c Command) Get(a Axis) float64 {
	if a == Steering {
		return c.Steering
	}
	return c.Throttle
}

// Quantize rounds x to the nearest multiple of QuantizeStep, halves rounding
// up, and trims the result to two decimal digits.
func Quantize(x float64) float64 {
	q := math.Floor(x/QuantizeStep+0.5) * QuantizeStep
	q = math.Round(q*100) / 100
	if q == 0 {
		// no negative zero on the wire
		return 0
	}
	return q
}

// FormatValue renders a quantized value with at most two decimals: 0.5, -0.3, 0.
func FormatValue(v float64) string {
	return strconv.FormatFloat(Quantize(v), 'f', -1, 64)
}
