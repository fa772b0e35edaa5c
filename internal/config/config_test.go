package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ModbusTarget != DefaultModbusTarget {
		t.Errorf("ModbusTarget = %q, want %q", cfg.ModbusTarget, DefaultModbusTarget)
	}
	if cfg.HTTPTarget != DefaultHTTPTarget {
		t.Errorf("HTTPTarget = %q, want %q", cfg.HTTPTarget, DefaultHTTPTarget)
	}
	if cfg.WSPath != DefaultWSPath {
		t.Errorf("WSPath = %q, want %q", cfg.WSPath, DefaultWSPath)
	}
	if cfg.Clients != DefaultClients || cfg.Requests != DefaultRequests {
		t.Errorf("clients/requests = %d/%d", cfg.Clients, cfg.Requests)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModbusTarget != DefaultModbusTarget {
		t.Errorf("ModbusTarget = %q, want default", cfg.ModbusTarget)
	}
	if cfg.Path() != "" {
		t.Errorf("Path = %q for defaults", cfg.Path())
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "modbus_target": "192.168.0.249:502",
  "http_target": "192.168.0.132:8080",
  "light": "rack2/level1",
  "clients": 25,
  "timeout_s": 1.5
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModbusTarget != "192.168.0.249:502" {
		t.Errorf("ModbusTarget = %q", cfg.ModbusTarget)
	}
	if cfg.Light != "rack2/level1" {
		t.Errorf("Light = %q", cfg.Light)
	}
	if cfg.Clients != 25 {
		t.Errorf("Clients = %d, want 25", cfg.Clients)
	}
	// Unset fields keep their defaults.
	if cfg.Requests != DefaultRequests {
		t.Errorf("Requests = %d, want default", cfg.Requests)
	}
	if cfg.WSPath != DefaultWSPath {
		t.Errorf("WSPath = %q, want default", cfg.WSPath)
	}
	if cfg.Timeout() != 1500*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.Path() != configPath {
		t.Errorf("Path = %q, want %q", cfg.Path(), configPath)
	}
}

func TestLoadMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.ModbusTarget = "10.0.0.5:502"
	cfg.S3Bucket = "bench-reports"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.ModbusTarget != "10.0.0.5:502" || loaded.S3Bucket != "bench-reports" {
		t.Errorf("round trip = %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
	cfg.Clients = 0
	cfg.applyDefaults()
	if cfg.Clients != DefaultClients {
		t.Errorf("zero clients not defaulted: %d", cfg.Clients)
	}
}
