// Package config provides hooktrace configuration management.
//
// Configuration is read from a YAML file once per invocation. A missing file
// is not an error: every field has a default matching the behaviour operators
// expect from a plain `hooktrace juju trace <app>`.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config path.
const EnvConfigPath = "HOOKTRACE_CONFIG"

// Hook name pattern variants accepted by Detector.Pattern.
const (
	PatternStrict   = "strict"
	PatternExtended = "extended"
)

// minBufferSize is the smallest detector buffer accepted. Anything smaller
// cannot hold one line of `env` output from a unit.
const minBufferSize = 1024

// Config represents the hooktrace config.yaml file.
type Config struct {
	// Juju contains settings for the juju binary.
	Juju JujuConfig `yaml:"juju"`

	// Timings contains the fixed delays of the interception protocol.
	Timings Timings `yaml:"timings"`

	// Terminal is the geometry of the pseudo-terminal given to debug-hooks.
	Terminal Terminal `yaml:"terminal"`

	// Detector configures dispatch detection.
	Detector Detector `yaml:"detector"`

	// Harness configures the tracing harness asset.
	Harness Harness `yaml:"harness,omitempty"`
}

// JujuConfig holds juju CLI settings.
type JujuConfig struct {
	// Binary is the juju executable name or path.
	Binary string `yaml:"binary"`

	// Model, when set, is passed as -m to every juju invocation.
	Model string `yaml:"model,omitempty"`
}

// Timings holds protocol delays.
type Timings struct {
	// PauseStagger is the wait between opening debug-hooks sessions in pause mode.
	PauseStagger time.Duration `yaml:"pause_stagger"`

	// TraceSettle is the wait after opening sessions in trace mode.
	TraceSettle time.Duration `yaml:"trace_settle"`

	// DebugSettle is the wait after opening sessions in debug mode.
	DebugSettle time.Duration `yaml:"debug_settle"`

	// PollInterval is the sleep between polling iterations.
	PollInterval time.Duration `yaml:"poll_interval"`

	// RetryInterval is the sleep before restarting a failed polling attempt.
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Terminal is a pseudo-terminal geometry.
type Terminal struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// Detector configures the dispatch detector.
type Detector struct {
	// Pattern selects the hook name pattern: "extended" or "strict".
	Pattern string `yaml:"pattern"`

	// MaxBuffer caps the detection buffer in bytes.
	MaxBuffer int `yaml:"max_buffer"`
}

// Harness configures the tracing harness.
type Harness struct {
	// Path overrides the embedded harness with a file on disk.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Juju: JujuConfig{Binary: "juju"},
		Timings: Timings{
			PauseStagger:  time.Second,
			TraceSettle:   5 * time.Second,
			DebugSettle:   10 * time.Second,
			PollInterval:  100 * time.Millisecond,
			RetryInterval: 5 * time.Second,
		},
		Terminal: Terminal{Rows: 24, Cols: 80},
		Detector: Detector{Pattern: PatternExtended, MaxBuffer: 64 * 1024},
	}
}

// DefaultPath returns the config path used when neither --config nor
// $HOOKTRACE_CONFIG is set.
//
// Returns:
//   - string: $XDG_CONFIG_HOME/hooktrace/config.yaml, or the platform equivalent
//   - error: If no user config directory can be determined
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "hooktrace", "config.yaml"), nil
}

// ResolvePath picks the config path from an explicit flag value, the
// environment, or the default location, in that order.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return DefaultPath()
}

// Load reads and validates a config file. Fields missing from the file keep
// their defaults. A missing file yields the defaults unless required is true.
//
// Parameters:
//   - path: Path to config.yaml
//   - required: Whether a missing file is an error (true for an explicit --config)
//
// Returns:
//   - *Config: The loaded configuration
//   - error: If the file cannot be read, parsed or validated
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.Juju.Binary == "" {
		return fmt.Errorf("juju.binary must not be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"timings.pause_stagger", c.Timings.PauseStagger},
		{"timings.trace_settle", c.Timings.TraceSettle},
		{"timings.debug_settle", c.Timings.DebugSettle},
		{"timings.poll_interval", c.Timings.PollInterval},
		{"timings.retry_interval", c.Timings.RetryInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	if c.Terminal.Rows <= 0 || c.Terminal.Cols <= 0 {
		return fmt.Errorf("terminal geometry must be positive, got %dx%d", c.Terminal.Rows, c.Terminal.Cols)
	}

	switch c.Detector.Pattern {
	case PatternStrict, PatternExtended:
	default:
		return fmt.Errorf("detector.pattern must be %q or %q, got %q", PatternExtended, PatternStrict, c.Detector.Pattern)
	}
	if c.Detector.MaxBuffer < minBufferSize {
		return fmt.Errorf("detector.max_buffer must be at least %d, got %d", minBufferSize, c.Detector.MaxBuffer)
	}
	return nil
}

// Flag names registered by RegisterFlags.
const (
	FlagModel         = "model"
	FlagSettle        = "settle"
	FlagPollInterval  = "poll-interval"
	FlagRetryInterval = "retry-interval"
	FlagHarness       = "harness"
)

// RegisterFlags adds the per-invocation overrides to a flag set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagModel, "m", "", "Juju model to operate on (default: current model)")
	fs.Duration(FlagSettle, 0, "Override the settle delay after opening remote sessions")
	fs.Duration(FlagPollInterval, 0, "Override the interval between env polls")
	fs.Duration(FlagRetryInterval, 0, "Override the delay before retrying a failed poll")
	fs.String(FlagHarness, "", "Path to a tracing harness replacing the built-in one")
}

// ApplyFlags copies explicitly set flags from fs onto the config. Only flags
// the user changed are applied, so file values survive unset flags.
//
// Parameters:
//   - fs: Flag set previously passed to RegisterFlags
//
// Returns:
//   - error: If a flag value cannot be read or the result is invalid
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var applyErr error
	fs.Visit(func(f *pflag.Flag) {
		if applyErr != nil {
			return
		}
		switch f.Name {
		case FlagModel:
			c.Juju.Model = f.Value.String()
		case FlagHarness:
			c.Harness.Path = f.Value.String()
		case FlagSettle:
			d, err := fs.GetDuration(FlagSettle)
			if err != nil {
				applyErr = err
				return
			}
			c.Timings.TraceSettle = d
			c.Timings.DebugSettle = d
		case FlagPollInterval:
			d, err := fs.GetDuration(FlagPollInterval)
			if err != nil {
				applyErr = err
				return
			}
			c.Timings.PollInterval = d
		case FlagRetryInterval:
			d, err := fs.GetDuration(FlagRetryInterval)
			if err != nil {
				applyErr = err
				return
			}
			c.Timings.RetryInterval = d
		}
	})
	if applyErr != nil {
		return applyErr
	}
	return c.Validate()
}
