// Package config loads settings shared by the CLI and the MCP server
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vagrant-mcp/govagrant/internal/logger"
)

// Environment variables read by ApplyEnv
const (
	EnvRoot          = "VAGRANT_ROOT"
	EnvExecutable    = "VAGRANT_EXECUTABLE"
	EnvTimeout       = "VAGRANT_TIMEOUT"
	EnvStrictParse   = "VAGRANT_STRICT_PARSE"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvMetricsListen = "METRICS_LISTEN"
	// EnvConfigFile names the YAML file read by the binaries when no flag sets one
	EnvConfigFile = "GOVAGRANT_CONFIG"
)

// Config holds the binding settings
type Config struct {
	// ConfigPath is the YAML file the config was loaded from, if any
	ConfigPath string
	// Root is the project directory holding the Vagrantfile
	Root string
	// Executable overrides the vagrant executable lookup
	Executable string
	// Timeout applies to every invocation that does not set its own; 0 means none
	Timeout time.Duration
	// StrictParse fails on malformed machine-readable output instead of warning
	StrictParse bool
	// WatchVagrantfile drops cached ssh configs when the Vagrantfile changes
	WatchVagrantfile bool
	LogLevel         string
	LogFormat        string
	// MetricsListen is the address for the Prometheus endpoint; empty disables it
	MetricsListen string
}

// FileConfig represents supported YAML config overrides
type FileConfig struct {
	Root             string `yaml:"root"`
	Executable       string `yaml:"executable"`
	Timeout          string `yaml:"timeout"`
	StrictParse      *bool  `yaml:"strict_parse"`
	WatchVagrantfile *bool  `yaml:"watch_vagrantfile"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	MetricsListen    string `yaml:"metrics_listen"`
}

// DefaultConfig returns the settings used when nothing overrides them
func DefaultConfig() Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return Config{
		Root:             root,
		Timeout:          0,
		StrictParse:      false,
		WatchVagrantfile: true,
		LogLevel:         string(logger.LogInfo),
		LogFormat:        logger.FormatAuto,
	}
}

// Load applies the YAML file at path (if path is not empty) and then the
// environment on top of the defaults, and validates the result
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		cfg.ConfigPath = path
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg FileConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFileConfig(cfg *Config, fileCfg FileConfig) error {
	if fileCfg.Root != "" {
		cfg.Root = fileCfg.Root
	}
	if fileCfg.Executable != "" {
		cfg.Executable = fileCfg.Executable
	}
	if fileCfg.Timeout != "" {
		d, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fileCfg.StrictParse != nil {
		cfg.StrictParse = *fileCfg.StrictParse
	}
	if fileCfg.WatchVagrantfile != nil {
		cfg.WatchVagrantfile = *fileCfg.WatchVagrantfile
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogFormat != "" {
		cfg.LogFormat = fileCfg.LogFormat
	}
	if fileCfg.MetricsListen != "" {
		cfg.MetricsListen = fileCfg.MetricsListen
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvRoot); v != "" {
		c.Root = v
	}
	if v := getenv(EnvExecutable); v != "" {
		c.Executable = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := getenv(EnvStrictParse); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrictParse, err)
		}
		c.StrictParse = b
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := getenv(EnvMetricsListen); v != "" {
		c.MetricsListen = v
	}
	return nil
}

// Validate checks the settings for values the binding cannot use
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	switch logger.LogLevel(c.LogLevel) {
	case logger.LogDebug, logger.LogInfo, logger.LogWarn, logger.LogError:
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case logger.FormatConsole, logger.FormatJSON, logger.FormatAuto:
	default:
		return fmt.Errorf("log_format must be one of console, json, auto, got %q", c.LogFormat)
	}
	return nil
}

// Logger returns the logger settings carried by c
func (c Config) Logger() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.LogLevel(c.LogLevel)
	lc.Format = c.LogFormat
	return lc
}
