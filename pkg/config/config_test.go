package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ControllerAddr != "127.0.0.1:3000" {
		t.Errorf("unexpected controller address %q", cfg.ControllerAddr)
	}
	if cfg.TravelDelay != time.Second || cfg.DoorDelay != time.Second || cfg.DoorDwell != time.Second {
		t.Errorf("expected one second simulation delays, got %+v", cfg)
	}
}

func TestSetDelay(t *testing.T) {
	cfg := Default()
	cfg.SetDelay(250 * time.Millisecond)

	for name, d := range map[string]time.Duration{
		"TravelDelay":      cfg.TravelDelay,
		"DoorDelay":        cfg.DoorDelay,
		"DoorDwell":        cfg.DoorDwell,
		"ReportInterval":   cfg.ReportInterval,
		"ReconnectBackoff": cfg.ReconnectBackoff,
	} {
		if d != 250*time.Millisecond {
			t.Errorf("%s: expected 250ms, got %s", name, d)
		}
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("SetDelay must not touch DialTimeout, got %s", cfg.DialTimeout)
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "car.yaml")
	body := "ControllerAddr: 10.0.0.7:4100\nTravelDelayMs: 1500\nDoorDwellMs: 300\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ControllerAddr != "10.0.0.7:4100" {
		t.Errorf("controller address not overlaid, got %q", cfg.ControllerAddr)
	}
	if cfg.TravelDelay != 1500*time.Millisecond {
		t.Errorf("travel delay not overlaid, got %s", cfg.TravelDelay)
	}
	if cfg.DoorDwell != 300*time.Millisecond {
		t.Errorf("door dwell not overlaid, got %s", cfg.DoorDwell)
	}
	// Absent fields keep their defaults.
	if cfg.DoorDelay != time.Second {
		t.Errorf("door delay changed without a setting, got %s", cfg.DoorDelay)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("dial timeout changed without a setting, got %s", cfg.DialTimeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	cfg := Default()
	if err := cfg.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("TravelDelayMs: [not, a, number]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Load(path); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
