package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service and CLI.
// Zero values mean "unspecified" and are replaced by Defaults or by the
// consumer's own defaults.
type Config struct {
	Addr          string   `json:"addr" yaml:"addr" toml:"addr" env:"ADDR"`
	Engine        string   `json:"engine" yaml:"engine" toml:"engine" env:"ENGINE"`
	ModulesDir    string   `json:"modules_dir" yaml:"modules_dir" toml:"modules_dir" env:"MODULES_DIR"`
	Modules       []string `json:"modules" yaml:"modules" toml:"modules" env:"MODULES" envSeparator:","`
	MaxSessions   int      `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions" env:"MAX_SESSIONS"`
	MaxQueueDepth int      `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" env:"MAX_QUEUE_DEPTH"`
	MaxWait       Duration `json:"max_wait" yaml:"max_wait" toml:"max_wait" env:"MAX_WAIT"`
	OpTimeout     Duration `json:"op_timeout" yaml:"op_timeout" toml:"op_timeout" env:"OP_TIMEOUT"`
	LogLevel      string   `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	MaxBodyBytes  int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// Defaults returns the configuration used when nothing else is specified.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		LogLevel:     "info",
		MaxBodyBytes: 1 << 20,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	err := loadInto(path, &cfg)
	return cfg, err
}

// loadInto decodes path over cfg; keys absent from the file keep their value.
func loadInto(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return err
		}
	case ".json":
		if err := json.Unmarshal(b, cfg); err != nil {
			return err
		}
	case ".toml":
		if err := toml.Unmarshal(b, cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
	return nil
}

// Resolve builds the effective configuration: Defaults, then the file at path
// when path is non-empty, then GOJAGS_* environment variables.
func Resolve(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := loadInto(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects values no consumer can use.
func (c Config) Validate() error {
	switch strings.ToLower(c.Engine) {
	case "", "jags", "sim":
	default:
		return fmt.Errorf("invalid engine %q: want jags or sim", c.Engine)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error", "off", "disabled":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.MaxSessions < 0 || c.MaxQueueDepth < 0 || c.MaxBodyBytes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.MaxWait < 0 || c.OpTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
