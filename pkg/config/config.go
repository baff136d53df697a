package config

import (
	"fmt"
	"strings"
	"time"
)

// Target modes
const (
	TargetModeLocal  = "local"
	TargetModeHosted = "hosted"
)

// Axis names used by key bindings
const (
	AxisThrottle = "throttle"
	AxisSteering = "steering"
)

// Defaults applied by ApplyDefaults
const (
	DefaultHTTPPort       = 8080
	DefaultLogLevel       = "info"
	DefaultStorePath      = "data/rcdrive.db"
	DefaultLimitPercent   = 50
	DefaultReleaseAfterMs = 250
	DefaultOriginScheme   = "http"
)

// KeyBinding maps a key name to a direction on one axis
type KeyBinding struct {
	Key       string `yaml:"key" json:"key"`
	Axis      string `yaml:"axis" json:"axis"`
	Direction int    `yaml:"direction" json:"direction"`
}

// DefaultKeyBindings are the WASD bindings
func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "w", Axis: AxisThrottle, Direction: 1},
		{Key: "s", Axis: AxisThrottle, Direction: -1},
		{Key: "a", Axis: AxisSteering, Direction: -1},
		{Key: "d", Axis: AxisSteering, Direction: 1},
	}
}

func (k KeyBinding) validate() error {
	if k.Key == "" {
		return fmt.Errorf("missing required field in bootstrap config: input.keys[].key")
	}
	if k.Axis != AxisThrottle && k.Axis != AxisSteering {
		return fmt.Errorf("invalid axis %q for key %q", k.Axis, k.Key)
	}
	if k.Direction != 1 && k.Direction != -1 {
		return fmt.Errorf("invalid direction %d for key %q: expected 1 or -1", k.Direction, k.Key)
	}
	return nil
}

// ApplyDefaults fills empty fields with their defaults
func (c *BootstrapConfig) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Target.Origin.Scheme == "" {
		c.Target.Origin.Scheme = DefaultOriginScheme
	}
	if c.Limits.ThrottlePercent == nil {
		v := DefaultLimitPercent
		c.Limits.ThrottlePercent = &v
	}
	if c.Limits.SteeringPercent == nil {
		v := DefaultLimitPercent
		c.Limits.SteeringPercent = &v
	}
	if c.Input.ReleaseAfterMs <= 0 {
		c.Input.ReleaseAfterMs = DefaultReleaseAfterMs
	}
	if len(c.Input.Keys) == 0 {
		c.Input.Keys = DefaultKeyBindings()
	}
}

// GetKeyBinding returns the binding for a key, matched case-insensitively
func (c *BootstrapConfig) GetKeyBinding(key string) (KeyBinding, bool) {
	for _, binding := range c.Input.Keys {
		if strings.EqualFold(binding.Key, key) {
			return binding, true
		}
	}
	return KeyBinding{}, false
}

// ReleaseAfter is the terminal key release timeout
func (c *BootstrapConfig) ReleaseAfter() time.Duration {
	return time.Duration(c.Input.ReleaseAfterMs) * time.Millisecond
}

// RequestTimeout is the outbound request timeout; zero disables it
func (c *BootstrapConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Transport.RequestTimeoutMs) * time.Millisecond
}
