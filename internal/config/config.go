// Package config loads the scheduler's key/value configuration file (§6):
// one directive per line, whitespace-separated "key value", unknown keys
// ignored, malformed lines ignored, missing file non-fatal.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the scheduler's immutable-after-initialize parameters (§3).
type Config struct {
	NumCPU           int    `yaml:"numCpu"`
	Scheduler        string `yaml:"scheduler"`
	QuantumCycles    int    `yaml:"quantumCycles"`
	BatchProcessFreq int    `yaml:"batchProcessFreq"`
	MinIns           int    `yaml:"minIns"`
	MaxIns           int    `yaml:"maxIns"`
	DelayPerExec     int    `yaml:"delayPerExec"`
}

// DefaultConfig returns the §3 default parameter set.
func DefaultConfig() *Config {
	return &Config{
		NumCPU:           4,
		Scheduler:        "rr",
		QuantumCycles:    5,
		BatchProcessFreq: 1,
		MinIns:           1000,
		MaxIns:           2000,
		DelayPerExec:     0,
	}
}

// LoadConfig reads directives from path into a copy of DefaultConfig's
// values. A missing or unreadable file logs nothing itself (the caller
// decides how to surface CONFIG_IO) but returns the untouched defaults
// alongside the error, so callers can choose to proceed with defaults per
// §7.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		applyLine(cfg, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLine parses one "key value" directive, ignoring malformed or
// unrecognized lines entirely (§6).
func applyLine(cfg *Config, line string) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	key, value := fields[0], unquote(fields[1])

	switch key {
	case "num-cpu":
		setInt(&cfg.NumCPU, value)
	case "scheduler":
		cfg.Scheduler = value
	case "quantum-cycles":
		setInt(&cfg.QuantumCycles, value)
	case "batch-process-freq":
		setInt(&cfg.BatchProcessFreq, value)
	case "min-ins":
		setInt(&cfg.MinIns, value)
	case "max-ins":
		setInt(&cfg.MaxIns, value)
	case "delay-per-exec":
		setInt(&cfg.DelayPerExec, value)
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func setInt(dst *int, value string) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return // malformed value: line ignored, default retained
	}
	*dst = n
}

// MarshalYAML renders cfg as YAML, for the CLI's "view-config -yaml" mode.
func MarshalYAML(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
