// Package config holds the runtime settings of the car process: simulation
// timings, controller address and the local control socket. Settings come
// from defaults, an optional YAML file, and the command line, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"go-elevator-bank/pkg/wire"
)

// Config is read-only after startup and shared freely without locking.
type Config struct {
	ControllerAddr string

	TravelDelay      time.Duration
	DoorDelay        time.Duration
	DoorDwell        time.Duration
	ReportInterval   time.Duration
	ReconnectBackoff time.Duration
	DialTimeout      time.Duration
	PollInterval     time.Duration
}

// Default returns the stock settings: one second per simulated operation,
// controller on the local machine.
func Default() Config {
	return Config{
		ControllerAddr:   wire.DefaultControllerAddr,
		TravelDelay:      time.Second,
		DoorDelay:        time.Second,
		DoorDwell:        time.Second,
		ReportInterval:   time.Second,
		ReconnectBackoff: time.Second,
		DialTimeout:      5 * time.Second,
		PollInterval:     100 * time.Millisecond,
	}
}

// SetDelay applies one uniform operation delay, the way the car's command
// line expresses it: travel, door timing, reporting and reconnect backoff
// all follow it.
func (c *Config) SetDelay(d time.Duration) {
	c.TravelDelay = d
	c.DoorDelay = d
	c.DoorDwell = d
	c.ReportInterval = d
	c.ReconnectBackoff = d
}

// file is the YAML shape. Delays are integer milliseconds; zero or absent
// fields keep their current value.
type file struct {
	ControllerAddr     string `yaml:"ControllerAddr"`
	TravelDelayMs      int    `yaml:"TravelDelayMs"`
	DoorDelayMs        int    `yaml:"DoorDelayMs"`
	DoorDwellMs        int    `yaml:"DoorDwellMs"`
	ReportIntervalMs   int    `yaml:"ReportIntervalMs"`
	ReconnectBackoffMs int    `yaml:"ReconnectBackoffMs"`
	DialTimeoutMs      int    `yaml:"DialTimeoutMs"`
	PollIntervalMs     int    `yaml:"PollIntervalMs"`
}

// Load overlays the YAML file at path onto c.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.ControllerAddr != "" {
		c.ControllerAddr = f.ControllerAddr
	}
	overlay(&c.TravelDelay, f.TravelDelayMs)
	overlay(&c.DoorDelay, f.DoorDelayMs)
	overlay(&c.DoorDwell, f.DoorDwellMs)
	overlay(&c.ReportInterval, f.ReportIntervalMs)
	overlay(&c.ReconnectBackoff, f.ReconnectBackoffMs)
	overlay(&c.DialTimeout, f.DialTimeoutMs)
	overlay(&c.PollInterval, f.PollIntervalMs)
	return nil
}

func overlay(dst *time.Duration, ms int) {
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}
