package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeBootstrap(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, BootstrapFilename)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}
	return tempDir
}

func TestLoadBootstrapConfig(t *testing.T) {
	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/rcdrive"
server:
  http_port: 9090
target:
  mode: "local"
store:
  path: "/data/rcdrive.db"
limits:
  throttle_percent: 80
  steering_percent: 30
input:
  release_after_ms: 400
  keys:
    - key: "up"
      axis: "throttle"
      direction: 1
    - key: "down"
      axis: "throttle"
      direction: -1
transport:
  request_timeout_ms: 1500
zeromq:
  publish_bind_address: "tcp://*:7777"
`
	bootstrapCfg, err := LoadBootstrapConfig(writeBootstrap(t, bootstrapContent))
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Logging.LogPath != "/var/log/rcdrive" {
		t.Errorf("Expected log path '/var/log/rcdrive', got '%s'", bootstrapCfg.Logging.LogPath)
	}
	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.Target.Mode != TargetModeLocal {
		t.Errorf("Expected target mode 'local', got '%s'", bootstrapCfg.Target.Mode)
	}
	if bootstrapCfg.Store.Path != "/data/rcdrive.db" {
		t.Errorf("Expected store path '/data/rcdrive.db', got '%s'", bootstrapCfg.Store.Path)
	}
	if *bootstrapCfg.Limits.ThrottlePercent != 80 {
		t.Errorf("Expected throttle_percent 80, got %d", *bootstrapCfg.Limits.ThrottlePercent)
	}
	if *bootstrapCfg.Limits.SteeringPercent != 30 {
		t.Errorf("Expected steering_percent 30, got %d", *bootstrapCfg.Limits.SteeringPercent)
	}
	if bootstrapCfg.ReleaseAfter() != 400*time.Millisecond {
		t.Errorf("Expected release after 400ms, got %v", bootstrapCfg.ReleaseAfter())
	}
	if bootstrapCfg.RequestTimeout() != 1500*time.Millisecond {
		t.Errorf("Expected request timeout 1.5s, got %v", bootstrapCfg.RequestTimeout())
	}
	if bootstrapCfg.ZeroMQ.PublishBindAddress != "tcp://*:7777" {
		t.Errorf("Expected zeromq publish_bind_address 'tcp://*:7777', got '%s'", bootstrapCfg.ZeroMQ.PublishBindAddress)
	}
	if len(bootstrapCfg.Input.Keys) != 2 {
		t.Errorf("Expected 2 key bindings, got %d", len(bootstrapCfg.Input.Keys))
	}
}

func TestLoadBootstrapConfigDefaults(t *testing.T) {
	bootstrapCfg, err := LoadBootstrapConfig(writeBootstrap(t, `
target:
  mode: "hosted"
  origin:
    host: "192.168.4.1"
`))
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("Expected default http_port %d, got %d", DefaultHTTPPort, bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.Target.Origin.Scheme != "http" {
		t.Errorf("Expected default origin scheme 'http', got '%s'", bootstrapCfg.Target.Origin.Scheme)
	}
	if *bootstrapCfg.Limits.ThrottlePercent != 50 || *bootstrapCfg.Limits.SteeringPercent != 50 {
		t.Errorf("Expected default limits 50/50, got %d/%d", *bootstrapCfg.Limits.ThrottlePercent, *bootstrapCfg.Limits.SteeringPercent)
	}
	if bootstrapCfg.ReleaseAfter() != 250*time.Millisecond {
		t.Errorf("Expected default release after 250ms, got %v", bootstrapCfg.ReleaseAfter())
	}
	if bootstrapCfg.RequestTimeout() != 0 {
		t.Errorf("Expected no request timeout by default, got %v", bootstrapCfg.RequestTimeout())
	}
}

func TestLoadBootstrapConfigZeroLimitIsKept(t *testing.T) {
	bootstrapCfg, err := LoadBootstrapConfig(writeBootstrap(t, `
target:
  mode: "local"
store:
  path: "kv.db"
limits:
  throttle_percent: 0
`))
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if *bootstrapCfg.Limits.ThrottlePercent != 0 {
		t.Errorf("Expected explicit throttle_percent 0 to survive defaults, got %d", *bootstrapCfg.Limits.ThrottlePercent)
	}
}

// Test case for missing required fields validation in LoadBootstrapConfig
func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing mode",
			content: "server:\n  http_port: 8080\n",
			want:    "missing required field in bootstrap config: target.mode",
		},
		{
			name:    "hosted without host",
			content: "target:\n  mode: hosted\n",
			want:    "missing required field in bootstrap config: target.origin.host",
		},
		{
			name:    "unknown mode",
			content: "target:\n  mode: satellite\n",
			want:    `invalid target.mode "satellite"`,
		},
		{
			name:    "limit out of range",
			content: "target:\n  mode: hosted\n  origin:\n    host: car.local\nlimits:\n  steering_percent: 140\n",
			want:    "limit percent 140 out of range",
		},
		{
			name:    "bad key direction",
			content: "target:\n  mode: hosted\n  origin:\n    host: car.local\ninput:\n  keys:\n    - key: x\n      axis: steering\n      direction: 2\n",
			want:    `invalid direction 2 for key "x"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadBootstrapConfig(writeBootstrap(t, tc.content))
			if err == nil {
				t.Fatalf("Expected error containing '%s', got nil", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error message to contain '%s', but got: %v", tc.want, err)
			}
		})
	}
}

func TestGetKeyBinding(t *testing.T) {
	cfg := &BootstrapConfig{}
	cfg.ApplyDefaults()

	binding, found := cfg.GetKeyBinding("W")
	if !found {
		t.Fatalf("Expected to find binding for W")
	}
	if binding.Axis != AxisThrottle || binding.Direction != 1 {
		t.Errorf("Expected throttle/+1 for W, got %s/%d", binding.Axis, binding.Direction)
	}

	binding, found = cfg.GetKeyBinding("a")
	if !found || binding.Axis != AxisSteering || binding.Direction != -1 {
		t.Errorf("Expected steering/-1 for a, got %+v (found=%v)", binding, found)
	}

	if _, found := cfg.GetKeyBinding("q"); found {
		t.Errorf("Expected no binding for q")
	}
}
