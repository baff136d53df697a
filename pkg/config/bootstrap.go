package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFilename is the file LoadBootstrapConfig reads from the config directory.
const BootstrapFilename = "rcdrive_config.yaml"

// BootstrapConfig holds the initial configuration loaded from rcdrive_config.yaml
type BootstrapConfig struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Target    TargetConfig    `yaml:"target"`
	Store     StoreConfig     `yaml:"store"`
	Limits    LimitsConfig    `yaml:"limits"`
	Input     InputConfig     `yaml:"input"`
	Transport TransportConfig `yaml:"transport"`
	ZeroMQ    ZeroMQBootstrap `yaml:"zeromq"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// ServerConfig holds the operator API server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// TargetConfig selects how the vehicle endpoint is resolved.
// Mode "local" reads the operator URL from the store, "hosted" uses Origin.
type TargetConfig struct {
	Mode   string       `yaml:"mode"`
	Mobile bool         `yaml:"mobile,omitempty"`
	Origin OriginConfig `yaml:"origin"`
}

// OriginConfig is the scheme/host/port of the page origin in hosted mode.
type OriginConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port,omitempty"`
}

// StoreConfig holds the local key-value store location
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LimitsConfig holds the startup axis limits in percent
type LimitsConfig struct {
	ThrottlePercent *int `yaml:"throttle_percent,omitempty"`
	SteeringPercent *int `yaml:"steering_percent,omitempty"`
}

// InputConfig holds key bindings and the terminal release timeout
type InputConfig struct {
	ReleaseAfterMs int          `yaml:"release_after_ms"`
	Keys           []KeyBinding `yaml:"keys,omitempty"`
}

// TransportConfig holds outbound HTTP settings. Zero timeout means wait forever.
type TransportConfig struct {
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// ZeroMQBootstrap holds ZeroMQ settings from bootstrap
type ZeroMQBootstrap struct {
	PublishBindAddress string `yaml:"publish_bind_address,omitempty"`
}

// LoadBootstrapConfig loads the bootstrap configuration from rcdrive_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFilename)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	bootstrapCfg.ApplyDefaults()

	return &bootstrapCfg, nil
}

// Validate checks required fields and enumerated values.
func (c *BootstrapConfig) Validate() error {
	switch c.Target.Mode {
	case "":
		return fmt.Errorf("missing required field in bootstrap config: target.mode")
	case TargetModeLocal:
		if c.Store.Path == "" {
			return fmt.Errorf("missing required field in bootstrap config: store.path")
		}
	case TargetModeHosted:
		if c.Target.Origin.Host == "" {
			return fmt.Errorf("missing required field in bootstrap config: target.origin.host")
		}
	default:
		return fmt.Errorf("invalid target.mode %q: expected %q or %q", c.Target.Mode, TargetModeLocal, TargetModeHosted)
	}

	for _, p := range []*int{c.Limits.ThrottlePercent, c.Limits.SteeringPercent} {
		if p != nil && (*p < 0 || *p > 100) {
			return fmt.Errorf("limit percent %d out of range 0..100", *p)
		}
	}
	for _, k := range c.Input.Keys {
		if err := k.validate(); err != nil {
			return err
		}
	}
	return nil
}
