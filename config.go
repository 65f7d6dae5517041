// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the declarative description of a process's data-tamer wiring:
// which sinks to stand up and how large to size their queues. It plays the
// role the teacher's cmd/sszgen flag/struct-driven options play for the
// generator, expressed here as a YAML document since the core is an
// embedded library rather than a one-shot code generator.
type Config struct {
	LogLevel    string             `yaml:"log_level"`
	QueueSize   int                `yaml:"queue_size"`
	FileSink    *FileSinkConfig    `yaml:"file_sink,omitempty"`
	BusSink     *BusSinkConfig     `yaml:"bus_sink,omitempty"`
	CounterSink *CounterSinkConfig `yaml:"counter_sink,omitempty"`
}

// FileSinkConfig configures sinks/file.
type FileSinkConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// BusSinkConfig configures sinks/bus.
type BusSinkConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// CounterSinkConfig configures sinks/counter.
type CounterSinkConfig struct {
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the zero-configuration defaults: info logging and a
// 1024-entry sink queue.
func DefaultConfig() Config {
	return Config{LogLevel: "info", QueueSize: 1024}
}

// LoadConfig reads and validates a YAML config file at path. Unknown keys
// are rejected via yaml.Decoder.KnownFields(true) to catch typos early,
// the same strictness the teacher applies to its own sszgen tag parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("tamer: reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("tamer: parsing config %s: %w", path, err)
	}
	if cfg.QueueSize <= 0 {
		return Config{}, fmt.Errorf("tamer: config %s: queue_size must be positive", path)
	}
	return cfg, nil
}
