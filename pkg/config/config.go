package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/tilewm/pkg/paths"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/layout"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Input sources.
const (
	SourceTTY   = "tty"
	SourceEvdev = "evdev"
)

// Display backends.
const (
	BackendTTY   = "tty"
	BackendTcell = "tcell"
)

// Config is the complete tilewm configuration.
type Config struct {
	Display  DisplayConfig     `yaml:"display"`
	Input    InputConfig       `yaml:"input"`
	Terminal TerminalConfig    `yaml:"terminal"`
	Layout   LayoutConfig      `yaml:"layout"`
	Startup  StartupConfig     `yaml:"startup"`
	Keys     map[string]string `yaml:"keys"`
	Logging  LoggingConfig     `yaml:"logging"`
	Metrics  MetricsConfig     `yaml:"metrics"`
}

// DisplayConfig controls presentation.
type DisplayConfig struct {
	Backend   string `yaml:"backend"`
	FrameRate int    `yaml:"frame_rate"`
	// ForceRedrawEvery repaints the whole screen every N cycles. Zero disables it.
	ForceRedrawEvery int  `yaml:"force_redraw_every"`
	AltScreen        bool `yaml:"alt_screen"`
	Mouse            bool `yaml:"mouse"`
}

// InputConfig selects the key source and the repeat policy.
type InputConfig struct {
	Source string `yaml:"source"`
	// Device is the evdev node. Empty means the first keyboard found.
	Device            string `yaml:"device"`
	QueueSize         int    `yaml:"queue_size"`
	RepeatDelayFrames int    `yaml:"repeat_delay_frames"`
	RepeatEveryFrames int    `yaml:"repeat_every_frames"`
}

// Repeat returns the configured repeat policy.
func (c InputConfig) Repeat() input.RepeatPolicy {
	return input.RepeatPolicy{Delay: c.RepeatDelayFrames, Every: c.RepeatEveryFrames}
}

// TerminalConfig describes the shell hosted by the terminal app.
type TerminalConfig struct {
	Shell      string   `yaml:"shell"`
	Args       []string `yaml:"args"`
	Term       string   `yaml:"term"`
	ReadBuffer int      `yaml:"read_buffer"`
	QueueSize  int      `yaml:"queue_size"`
}

// LayoutConfig is an optional initial split preset.
type LayoutConfig struct {
	Rows []layout.RowSpec `yaml:"rows"`
}

// StartupConfig lists registry names placed into tiles in order.
type StartupConfig struct {
	Apps []string `yaml:"apps"`
}

// LoggingConfig controls the JSON log file.
type LoggingConfig struct {
	// Level is debug, info, warn, error or off.
	Level string `yaml:"level"`
	// File defaults to $XDG_STATE_HOME/tilewm/tilewm.log.
	File string `yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Config{
		Display: DisplayConfig{
			Backend:   BackendTTY,
			FrameRate: 30,
			AltScreen: true,
			Mouse:     true,
		},
		Input: InputConfig{
			Source:            SourceTTY,
			QueueSize:         input.DefaultQueueSize,
			RepeatDelayFrames: input.DefaultRepeat().Delay,
			RepeatEveryFrames: input.DefaultRepeat().Every,
		},
		Terminal: TerminalConfig{
			Shell:      shell,
			Args:       []string{"-i"},
			Term:       "xterm",
			ReadBuffer: 4096,
			QueueSize:  64,
		},
		Startup: StartupConfig{Apps: []string{"terminal"}},
		Keys:    map[string]string{},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tilewm/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	return paths.ConfigFile()
}

// Load reads the default config file if it exists, then applies
// environment overrides and validation.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := DefaultPath(); path != "" {
		if err := loadAndMerge(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads path, which must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults without touching the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := decode(cfg, data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decode(cfg, data)
}

// decode merges data into cfg. Unknown fields are rejected so typos
// surface instead of silently falling back to defaults.
func decode(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.Keys == nil {
		cfg.Keys = map[string]string{}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TILEWM_BACKEND"); v != "" {
		cfg.Display.Backend = v
	}
	if v, ok := envInt("TILEWM_FRAME_RATE"); ok {
		cfg.Display.FrameRate = v
	}
	if v, ok := envBool("TILEWM_ALT_SCREEN"); ok {
		cfg.Display.AltScreen = v
	}
	if v, ok := envBool("TILEWM_MOUSE"); ok {
		cfg.Display.Mouse = v
	}
	if v := os.Getenv("TILEWM_INPUT"); v != "" {
		cfg.Input.Source = v
	}
	if v := os.Getenv("TILEWM_INPUT_DEVICE"); v != "" {
		cfg.Input.Device = v
	}
	if v := os.Getenv("TILEWM_SHELL"); v != "" {
		cfg.Terminal.Shell = v
	}
	if v := os.Getenv("TILEWM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TILEWM_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v, ok := envBool("TILEWM_METRICS"); ok {
		cfg.Metrics.Enabled = v
	}
	if v := os.Getenv("TILEWM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

func envBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func envInt(key string) (int, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MetricsPublic reports whether the metrics endpoint listens beyond
// the loopback interface.
func (c *Config) MetricsPublic() bool {
	return c.Metrics.Enabled && !isLoopbackBindAddress(c.Metrics.Addr)
}

func isLoopbackBindAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Display.Backend {
	case BackendTTY, BackendTcell:
	default:
		return fmt.Errorf("%w: display.backend %q (must be tty or tcell)", ErrInvalid, c.Display.Backend)
	}
	if c.Display.FrameRate <= 0 || c.Display.FrameRate > 240 {
		return fmt.Errorf("%w: display.frame_rate %d (must be 1-240)", ErrInvalid, c.Display.FrameRate)
	}
	if c.Display.ForceRedrawEvery < 0 {
		return fmt.Errorf("%w: display.force_redraw_every must not be negative", ErrInvalid)
	}

	switch c.Input.Source {
	case SourceTTY, SourceEvdev:
	default:
		return fmt.Errorf("%w: input.source %q (must be tty or evdev)", ErrInvalid, c.Input.Source)
	}
	if c.Input.QueueSize <= 0 {
		return fmt.Errorf("%w: input.queue_size must be positive", ErrInvalid)
	}
	if c.Input.RepeatDelayFrames < 0 {
		return fmt.Errorf("%w: input.repeat_delay_frames must not be negative", ErrInvalid)
	}
	if c.Input.RepeatEveryFrames < 0 {
		return fmt.Errorf("%w: input.repeat_every_frames must not be negative", ErrInvalid)
	}

	if strings.TrimSpace(c.Terminal.Shell) == "" {
		return fmt.Errorf("%w: terminal.shell is empty", ErrInvalid)
	}
	if c.Terminal.ReadBuffer < 0 || c.Terminal.QueueSize < 0 {
		return fmt.Errorf("%w: terminal buffers must not be negative", ErrInvalid)
	}

	for i, row := range c.Layout.Rows {
		if row.Height < 0 {
			return fmt.Errorf("%w: layout.rows[%d].height must not be negative", ErrInvalid, i)
		}
		for j, w := range row.Columns {
			if w < 0 {
				return fmt.Errorf("%w: layout.rows[%d].columns[%d] must not be negative", ErrInvalid, i, j)
			}
		}
	}

	for action, token := range c.Keys {
		if _, err := input.ParseToken(token); err != nil {
			return fmt.Errorf("%w: keys.%s: %v", ErrInvalid, action, err)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "off":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", ErrInvalid)
	}
	return nil
}
