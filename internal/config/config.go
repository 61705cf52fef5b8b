// Package config loads the CLI configuration file.
//
// Values come from three layers, later ones winning: built-in defaults,
// cohort.yaml, and command-line flags (applied by the caller).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "cohort.yaml"

// Config is the full CLI configuration.
type Config struct {
	Dir            string     `yaml:"dir"`
	LogLevel       string     `yaml:"log_level"`
	LogJSON        bool       `yaml:"log_json"`
	MaxRewindDepth int        `yaml:"max_rewind_depth"`
	MaxSteps       int        `yaml:"max_steps"`
	Redis          Redis      `yaml:"redis"`
	Serve          Serve      `yaml:"serve"`
	Simulation     Simulation `yaml:"simulation"`
}

// Redis configures the snapshot store. An empty Addr selects the in-memory store.
type Redis struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

// Serve configures the HTTP API.
type Serve struct {
	Port string `yaml:"port"`
}

// Simulation configures the `simulate` command.
type Simulation struct {
	Population    int      `yaml:"population"`
	Seed          uint64   `yaml:"seed"`
	Start         Date     `yaml:"start"`
	End           Date     `yaml:"end"`
	Step          Duration `yaml:"step"`
	Workers       int      `yaml:"workers"`
	WellnessEvery Duration `yaml:"wellness_every"`
	Modules       []string `yaml:"modules"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Dir:      ".",
		LogLevel: "info",
		Serve:    Serve{Port: "8080"},
		Simulation: Simulation{
			Population:    100,
			Seed:          1,
			Start:         Date{time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
			End:           Date{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			Step:          Duration(7 * 24 * time.Hour),
			WellnessEvery: Duration(365 * 24 * time.Hour),
		},
	}
}

// Load reads path over the defaults. When explicit is false a missing file is
// not an error, so the default file name can be tried silently.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Duration is a time.Duration that also accepts a day suffix ("7d") in YAML and flags.
type Duration time.Duration

// ParseDuration accepts time.ParseDuration syntax plus whole or fractional days ("1.5d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Date is a calendar day in UTC, written as 2006-01-02.
type Date struct {
	time.Time
}

// ParseDate parses a 2006-01-02 date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	t, err := ParseDate(node.Value)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
