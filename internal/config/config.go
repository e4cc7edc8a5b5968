// Package config loads mmdispatch options from mmdispatch.yaml and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options are the tunables shared by the library and the CLI.
type Options struct {
	// LogLevel is one of debug, info, warn, error. Defaults to warn.
	LogLevel string `yaml:"log_level,omitempty"`

	// AutoRebuild makes a call on stale tables rebuild them first.
	// Defaults to true. Hosts that dispatch from several goroutines turn
	// it off and call Initialize after registering.
	AutoRebuild *bool `yaml:"auto_rebuild,omitempty"`

	// Color is auto, always or never. Only the CLI uses it.
	Color string `yaml:"color,omitempty"`
}

// Default returns options with every default applied.
func Default() *Options {
	o := &Options{}
	o.setDefaults()
	return o
}

// LoadConfig reads and parses an mmdispatch.yaml file.
func LoadConfig(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses mmdispatch.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := o.validate(path); err != nil {
		return nil, err
	}
	o.setDefaults()
	return &o, nil
}

// FindConfig searches for mmdispatch.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error if none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (o *Options) validate(path string) error {
	if o.LogLevel != "" {
		if _, err := parseLevel(o.LogLevel); err != nil {
			return fmt.Errorf("%s: log_level: %w", path, err)
		}
	}
	switch o.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color: unknown mode %q (want auto, always or never)", path, o.Color)
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.LogLevel == "" {
		o.LogLevel = "warn"
	}
	if o.AutoRebuild == nil {
		auto := true
		o.AutoRebuild = &auto
	}
	if o.Color == "" {
		o.Color = ColorAuto
	}
}

// ApplyEnv overrides options from MMDISPATCH_* variables. lookup is
// usually os.LookupEnv.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if _, err := parseLevel(v); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		o.LogLevel = v
	}
	if v, ok := lookup(EnvColor); ok && v != "" {
		o.Color = v
		if err := o.validate(EnvColor); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvAutoRebuild); ok && v != "" {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAutoRebuild, err)
		}
		o.AutoRebuild = &auto
	}
	return nil
}

// Level returns the slog level of LogLevel.
func (o *Options) Level() slog.Level {
	l, err := parseLevel(o.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return l
}

// Rebuild reports the effective AutoRebuild value.
func (o *Options) Rebuild() bool {
	return o.AutoRebuild == nil || *o.AutoRebuild
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
