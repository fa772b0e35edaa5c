package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dmxbench.json"

	// DefaultModbusTarget is the conventional Modbus TCP endpoint.
	DefaultModbusTarget = "127.0.0.1:502"

	// DefaultHTTPTarget is the conventional REST/WebSocket endpoint.
	DefaultHTTPTarget = "127.0.0.1:8080"

	// DefaultWSPath is the WebSocket upgrade path on the HTTP target.
	DefaultWSPath = "/ws"

	// DefaultLight is the fixture used by set/get workloads and animations.
	DefaultLight = "rack1/level1"

	// DefaultClients is the default concurrent session count.
	DefaultClients = 10

	// DefaultRequests is the default operation count per client.
	DefaultRequests = 100
)

// Config represents the complete dmxbench.json configuration.
type Config struct {
	// ModbusTarget is the host:port of the gateway's Modbus TCP server.
	ModbusTarget string `json:"modbus_target,omitempty"`

	// HTTPTarget is the host:port of the gateway's REST/WebSocket server.
	HTTPTarget string `json:"http_target,omitempty"`

	// WSPath is the WebSocket upgrade path.
	WSPath string `json:"ws_path,omitempty"`

	// Light is the fixture driven by set/get workloads and animations.
	Light string `json:"light,omitempty"`

	// Clients is the concurrent session count for stress runs.
	Clients int `json:"clients,omitempty"`

	// Requests is the per-client operation count for stress runs.
	Requests int `json:"requests,omitempty"`

	// TimeoutS is the per-connection I/O timeout in seconds.
	TimeoutS float64 `json:"timeout_s,omitempty"`

	// ReplyTimeoutS is the WebSocket per-command reply timeout in seconds.
	ReplyTimeoutS float64 `json:"reply_timeout_s,omitempty"`

	// S3Bucket, when set, enables report upload after stress runs.
	S3Bucket string `json:"s3_bucket,omitempty"`

	// S3Prefix is prepended to generated report keys.
	S3Prefix string `json:"s3_prefix,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// New returns a configuration populated with built-in defaults.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads dmxbench.json from dir. A missing file is not an error: the
// built-in defaults are returned instead.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from, if any.
func (c *Config) Path() string { return c.configPath }

// Timeout returns the I/O timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutS * float64(time.Second))
}

// ReplyTimeout returns the WebSocket reply timeout as a duration.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutS * float64(time.Second))
}

// applyDefaults fills zero-valued fields with built-in defaults.
func (c *Config) applyDefaults() {
	if c.ModbusTarget == "" {
		c.ModbusTarget = DefaultModbusTarget
	}
	if c.HTTPTarget == "" {
		c.HTTPTarget = DefaultHTTPTarget
	}
	if c.WSPath == "" {
		c.WSPath = DefaultWSPath
	}
	if c.Light == "" {
		c.Light = DefaultLight
	}
	if c.Clients <= 0 {
		c.Clients = DefaultClients
	}
	if c.Requests <= 0 {
		c.Requests = DefaultRequests
	}
	if c.TimeoutS <= 0 {
		c.TimeoutS = 5
	}
	if c.ReplyTimeoutS <= 0 {
		c.ReplyTimeoutS = 2
	}
}

// Validate rejects configurations that cannot drive a run.
func (c *Config) Validate() error {
	if c.Clients < 1 {
		return fmt.Errorf("config: clients must be at least 1")
	}
	if c.Requests < 1 {
		return fmt.Errorf("config: requests must be at least 1")
	}
	return nil
}
